package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mrdg/dbsynth/screen"
)

var (
	titleColor  = color.New(color.FgMagenta, color.Bold).SprintFunc()
	noticeColor = color.New(color.FgYellow).SprintFunc()
	errorColor  = color.New(color.FgRed, color.Bold).SprintFunc()
	labelColor  = color.New(color.FgBlue).SprintFunc()
	valueColor  = color.New(color.FgGreen).SprintFunc()
)

const title = "[db-synth]"

func renderScreen(s *screen.Screen, w io.Writer) {
	for i, line := range s.Lines() {
		if i == 0 {
			fmt.Fprintln(w, renderTitle(line, s.Notification()))
			continue
		}
		fields := strings.Split(line, " | ")
		for n, f := range fields {
			fields[n] = renderField(f)
		}
		fmt.Fprintln(w, strings.Join(fields, " | "))
	}
}

func renderTitle(line string, n screen.Notification) string {
	rest := strings.TrimPrefix(line, title)
	switch n {
	case screen.None:
		return titleColor(title) + rest
	case screen.Error:
		return titleColor(title) + errorColor(rest)
	default:
		return titleColor(title) + noticeColor(rest)
	}
}

// renderField colors a "label: value" pair, keeping its padding.
func renderField(f string) string {
	i := strings.Index(f, ":")
	if i < 0 {
		return f
	}
	return labelColor(f[:i+1]) + valueColor(f[i+1:])
}
