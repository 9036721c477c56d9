// Package dub parses the one-line commands typed at the synth prompt:
//
//	set adsr.attack 40
//	loop bass 4 [36 [36 48] (36 43) 0]
//
// A command is an identifier followed by arguments. Arguments are numbers,
// identifiers, quoted strings, arrays in square brackets and tuples in
// parentheses.
package dub

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrSyntax = errors.New("syntax error")

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Number) isNode()     {}
func (String) isNode()     {}
func (Array) isNode()      {}
func (Tuple) isNode()      {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Number float64
type String string

// Array is a sequence of nodes played one after another.
type Array []Node

// Tuple is a group of nodes played at the same time.
type Tuple []Node

func (a Array) String() string { return "[" + join(a) + "]" }
func (t Tuple) String() string { return "(" + join(t) + ")" }

func join(nodes []Node) string {
	s := make([]string, len(nodes))
	for i, n := range nodes {
		s[i] = fmt.Sprint(n)
	}
	return strings.Join(s, " ")
}

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != typeEOF {
		p.pos++
	}
	return t
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		arg, err := p.node(token)
		if err != nil {
			return cmd, err
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func (p *parser) node(token token) (Node, error) {
	switch token.typ {
	case typeIdentifier:
		return Identifier(token.text), nil
	case typeString:
		s, err := strconv.Unquote(token.text)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid string %s", ErrSyntax, token.text)
		}
		return String(s), nil
	case typeNumber:
		return parseNumber(token)
	case typeLeftBracket:
		nodes, err := p.list(typeRightBracket)
		return Array(nodes), err
	case typeLeftParen:
		nodes, err := p.list(typeRightParen)
		return Tuple(nodes), err
	}
	return nil, unexpected(token)
}

func (p *parser) list(end tokenType) ([]Node, error) {
	nodes := []Node{}
	for {
		token := p.next()
		switch token.typ {
		case end:
			return nodes, nil
		case typeEOF:
			return nil, fmt.Errorf("%w: unclosed list at end of input", ErrSyntax)
		}
		n, err := p.node(token)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
}

func parseNumber(token token) (Number, error) {
	text := token.text
	if strings.Contains(text, "x") || strings.Contains(text, "X") {
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid number %s", ErrSyntax, text)
		}
		return Number(n), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %s", ErrSyntax, text)
	}
	return Number(f), nil
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("%w: unexpected end of input", ErrSyntax)
	}
	return fmt.Errorf("%w: unexpected token %q at position %d", ErrSyntax, t.text, t.pos)
}
