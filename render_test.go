package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/mrdg/dbsynth/screen"
)

func withColor(enabled bool) func() {
	old := color.NoColor
	color.NoColor = !enabled
	return func() { color.NoColor = old }
}

func TestRenderScreenPlain(t *testing.T) {
	defer withColor(false)()

	s := screen.New()
	s.Notify(screen.Ready, time.Now())
	var buf bytes.Buffer
	renderScreen(s, &buf)
	if want, got := s.String()+"\n", buf.String(); want != got {
		t.Errorf("want:\n%s\ngot:\n%s", want, got)
	}
}

func TestRenderScreenColors(t *testing.T) {
	defer withColor(true)()

	s := screen.New()
	s.Notify(screen.Error, time.Now())
	var buf bytes.Buffer
	renderScreen(s, &buf)
	lines := strings.Split(buf.String(), "\n")

	rest := strings.TrimPrefix(s.Lines()[0], title)
	if want, got := titleColor(title)+errorColor(rest), lines[0]; want != got {
		t.Errorf("title: want %q, got %q", want, got)
	}
	if want, got := labelColor("WF:"), lines[2]; !strings.HasPrefix(got, want) {
		t.Errorf("want prefix %q, got %q", want, got)
	}
	if want, got := " | "+labelColor("CH:")+valueColor(" 1 "), lines[2]; !strings.HasSuffix(got, want) {
		t.Errorf("want suffix %q, got %q", want, got)
	}
	if want, got := "", lines[1]; want != strings.TrimSpace(got) {
		t.Errorf("blank line rendered as %q", got)
	}
}

func TestRenderField(t *testing.T) {
	defer withColor(false)()
	for _, f := range []string{"", "no label", "S: 100.0%", "F: LPF "} {
		if want, got := f, renderField(f); want != got {
			t.Errorf("want %q, got %q", want, got)
		}
	}
}
