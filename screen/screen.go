// Package screen keeps the text of the synth's status display: eight lines of
// 21 characters showing every parameter, plus a short lived notification in
// the title line.
package screen

import (
	"fmt"
	"strings"
	"time"

	"github.com/mrdg/dbsynth/audio"
)

const (
	Width    = 21
	NumLines = 8

	// NotificationTimeout is how long a notification stays on screen.
	NotificationTimeout = 2 * time.Second
)

type Notification int

const (
	None Notification = iota
	Error
	Ready
	PresetUpdated
)

func (n Notification) String() string {
	switch n {
	case Error:
		return "ERROR"
	case Ready:
		return "READY"
	case PresetUpdated:
		return "PRESET UPD"
	}
	return ""
}

// Screen holds the displayed values. Setters report whether the display
// changed, so callers only redraw when needed. It is not safe for
// concurrent use.
type Screen struct {
	notification Notification
	expires      time.Time

	waveform audio.Waveform
	channel  uint8
	envType  audio.EnvelopeType
	attack   uint8
	decay    uint8
	sustain  uint8
	release  uint8
	filter   audio.FilterType
	cutoff   uint8
}

func New() *Screen {
	return &Screen{sustain: 0x7f, cutoff: 0x7f}
}

// Notify shows n in the title line until NotificationTimeout after now.
func (s *Screen) Notify(n Notification, now time.Time) bool {
	if n == None {
		return false
	}
	s.notification = n
	s.expires = now.Add(NotificationTimeout)
	return true
}

// Notification returns the notification on display.
func (s *Screen) Notification() Notification {
	return s.notification
}

// Task clears an expired notification. It reports whether the display changed.
func (s *Screen) Task(now time.Time) bool {
	if s.notification == None || now.Before(s.expires) {
		return false
	}
	s.notification = None
	return true
}

func set[T comparable](dst *T, v T) bool {
	if *dst == v {
		return false
	}
	*dst = v
	return true
}

func (s *Screen) SetWaveform(w audio.Waveform) bool { return set(&s.waveform, w) }

func (s *Screen) SetChannel(ch uint8) bool {
	if ch > 0x0f {
		return false
	}
	return set(&s.channel, ch)
}

func (s *Screen) SetEnvelopeType(t audio.EnvelopeType) bool { return set(&s.envType, t) }
func (s *Screen) SetAttack(v uint8) bool                    { return set(&s.attack, v) }
func (s *Screen) SetDecay(v uint8) bool                     { return set(&s.decay, v) }
func (s *Screen) SetSustain(v uint8) bool                   { return set(&s.sustain, v) }
func (s *Screen) SetRelease(v uint8) bool                   { return set(&s.release, v) }
func (s *Screen) SetFilterType(t audio.FilterType) bool     { return set(&s.filter, t) }
func (s *Screen) SetCutoff(v uint8) bool                    { return set(&s.cutoff, v) }

// Apply sets the field shown for a synth parameter key.
func (s *Screen) Apply(key string, value int) bool {
	v := uint8(value)
	switch key {
	case audio.KeyChannel:
		return s.SetChannel(v)
	case audio.KeyWaveform:
		return s.SetWaveform(audio.Waveform(v))
	case audio.KeyEnvelopeType:
		return s.SetEnvelopeType(audio.EnvelopeType(v))
	case audio.KeyAttack:
		return s.SetAttack(v)
	case audio.KeyDecay:
		return s.SetDecay(v)
	case audio.KeySustain:
		return s.SetSustain(v)
	case audio.KeyRelease:
		return s.SetRelease(v)
	case audio.KeyFilterType:
		return s.SetFilterType(audio.FilterType(v))
	case audio.KeyCutoff:
		return s.SetCutoff(v)
	}
	return false
}

var waveformLabels = map[audio.Waveform]string{
	audio.Square:   "Square",
	audio.Sine:     "Sine",
	audio.Triangle: "Triangle",
	audio.Saw:      "Saw",
}

var filterLabels = map[audio.FilterType]string{
	audio.FilterOff: "Off",
	audio.LowPass:   "LPF",
	audio.HighPass:  "HPF",
}

func label[K comparable](m map[K]string, k K, unknown string) string {
	if l, ok := m[k]; ok {
		return l
	}
	return unknown
}

// Lines renders the display, every line padded to Width.
//
//	[db-synth] PRESET UPD
//
//	WF: Triangle | CH: 15
//
//	AE: 20.0s | DE: 20.0s
//	S: 100.0% | RE: 20.0s
//
//	F: LPF | FC: 20.00kHz
func (s *Screen) Lines() []string {
	t := 'E'
	if s.envType == audio.Linear {
		t = 'L'
	}
	lines := []string{
		fmt.Sprintf("[db-synth] %s", s.notification),
		"",
		fmt.Sprintf("WF: %-8s | CH: %d", label(waveformLabels, s.waveform, "Unknown"), s.channel+1),
		"",
		fmt.Sprintf("A%c: %-5s | D%c: %s", t, audio.TimeDescription(s.attack), t, audio.TimeDescription(s.decay)),
		fmt.Sprintf("S: %-6s | R%c: %s", audio.LevelDescription(s.sustain), t, audio.TimeDescription(s.release)),
		"",
		fmt.Sprintf("F: %-3s | FC: %s", label(filterLabels, s.filter, "Unk"), audio.CutoffDescription(s.cutoff)),
	}
	for i, l := range lines {
		if len(l) < Width {
			l += strings.Repeat(" ", Width-len(l))
		}
		lines[i] = l
	}
	return lines
}

func (s *Screen) String() string {
	return strings.Join(s.Lines(), "\n")
}
