package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/mrdg/dbsynth/audio"
	"github.com/mrdg/dbsynth/dub"
	"github.com/mrdg/dbsynth/midi"
	"github.com/mrdg/dbsynth/screen"
	"github.com/mrdg/dbsynth/settings"
)

// env is the control side of the synth. Commands, the keyboard and scripts
// reach the audio goroutine only through props and the MIDI queue.
type env struct {
	props      *audio.Props
	instrument *audio.Instrument
	queue      *midi.Queue
	out        io.Writer

	changes chan change

	mu     sync.Mutex // guards screen, store and live
	screen *screen.Screen
	store  *settings.Store
	live   bool // redraw the screen whenever it changes
}

type change struct {
	key   string
	value int
}

func newEnv(props *audio.Props, queue *midi.Queue, out io.Writer) *env {
	return &env{
		props:   props,
		queue:   queue,
		out:     out,
		changes: make(chan change, 64),
		screen:  screen.New(),
	}
}

// onChange is called from the audio goroutine, so it drops changes rather
// than block when nobody is listening.
func (e *env) onChange(key string, value int) {
	select {
	case e.changes <- change{key, value}:
	default:
	}
}

func (e *env) apply(c change) {
	e.mu.Lock()
	defer e.mu.Unlock()
	redraw := e.screen.Apply(c.key, c.value)
	if e.store != nil && e.store.Set(c.key, uint8(c.value)) {
		e.store.StartWrite()
	}
	if redraw {
		e.redraw()
	}
}

func (e *env) notify(n screen.Notification) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.screen.Notify(n, time.Now()) {
		e.redraw()
	}
}

// task runs the periodic housekeeping: one settings write and notification expiry.
func (e *env) task(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store != nil {
		if _, err := e.store.Task(); err != nil {
			log.Printf("save settings: %v", err)
			e.screen.Notify(screen.Error, now)
			e.redraw()
		}
	}
	if e.screen.Task(now) {
		e.redraw()
	}
}

// flush writes every unsaved setting.
func (e *env) flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil
	}
	return e.store.Flush()
}

func (e *env) redraw() {
	if !e.live {
		return
	}
	fmt.Fprint(e.out, "\033[H\033[2J")
	renderScreen(e.screen, e.out)
}

func (e *env) setLive(live bool) {
	e.mu.Lock()
	e.live = live
	e.redraw()
	e.mu.Unlock()
}

// watch applies parameter changes until done is closed.
func (e *env) watch(done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case c := <-e.changes:
			e.apply(c)
		case now := <-ticker.C:
			e.task(now)
		case <-done:
			return
		}
	}
}

// channel returns the MIDI channel the synth listens on.
func (e *env) channel() uint8 {
	v, err := e.props.Get(audio.KeyChannel)
	if err != nil {
		return 0
	}
	ch, _ := v.(int)
	return uint8(ch) & 0x0f
}

func (e *env) send(bs ...byte) {
	e.queue.Push(bs...)
}

func (e *env) eval(input string) (dub.Node, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return nil, err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return nil, fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return nil, fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("unknown command: %s", name)
}

func (e *env) print(result dub.Node, err error) {
	if err != nil {
		fmt.Fprintln(e.out, err)
	} else if result != nil {
		fmt.Fprintln(e.out, result)
	}
}

func completer(e *env) *readline.PrefixCompleter {
	params := func(string) []string { return e.props.Keys() }
	presets := func(string) []string { return audio.Presets() }
	var items []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		switch cmd.name {
		case "set", "get":
			items = append(items, readline.PcItem(cmd.name, readline.PcItemDynamic(params)))
		case "preset":
			items = append(items, readline.PcItem(cmd.name, readline.PcItemDynamic(presets)))
		default:
			items = append(items, readline.PcItem(cmd.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

func repl(env *env) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "> ",
		AutoComplete: completer(env),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err != nil {
			fmt.Fprintln(env.out, err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		env.print(env.eval(line))
	}
}

// batch evaluates every line of r, stopping at the first error.
func batch(env *env, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	var n int
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		result, err := env.eval(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if result != nil {
			fmt.Fprintln(env.out, result)
		}
	}
	return scanner.Err()
}
