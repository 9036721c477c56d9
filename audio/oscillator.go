package audio

import (
	"fmt"
	"strings"

	"github.com/mrdg/dbsynth/fixed"
)

type Waveform uint8

const (
	Square Waveform = iota
	Sine
	Triangle
	Saw
	numWaveforms
)

var waveformNames = [numWaveforms]string{"square", "sine", "triangle", "saw"}

func (w Waveform) Valid() bool { return w < numWaveforms }

func (w Waveform) String() string {
	if !w.Valid() {
		return "unknown"
	}
	return waveformNames[w]
}

func ParseWaveform(s string) (Waveform, error) {
	for i, name := range waveformNames {
		if strings.EqualFold(s, name) {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("not a valid waveform: %v", s)
}

// Oscillator is a single wavetable oscillator. Note and waveform changes are
// staged and only take effect when the phase wraps, so a cycle is never cut
// short.
type Oscillator struct {
	ready bool
	phase fixed.Phase

	playing  bool
	note     uint8
	waveform Waveform

	notePending  bool
	nextNote     uint8
	wavePending  bool
	nextWaveform Waveform
}

func NewOscillator(w Waveform) *Oscillator {
	o := &Oscillator{ready: true}
	o.SetWaveform(w)
	return o
}

// SetWaveform stages w for the next cycle and reports whether that changes
// the waveform the oscillator will play.
func (o *Oscillator) SetWaveform(w Waveform) bool {
	if o == nil || !o.ready || !w.Valid() {
		return false
	}
	if o.wavePending {
		if o.nextWaveform == w {
			return false
		}
	} else if o.waveform == w && o.playing {
		return false
	}
	o.nextWaveform = w
	o.wavePending = true
	return true
}

// Waveform returns the waveform that will be heard once pending changes apply.
func (o *Oscillator) Waveform() Waveform {
	if o == nil {
		return Square
	}
	if o.wavePending {
		return o.nextWaveform
	}
	return o.waveform
}

// SetNote stages note for the next cycle. If nothing is playing it starts on
// the next sample.
func (o *Oscillator) SetNote(note uint8) {
	if o == nil || !o.ready || note >= NumNotes {
		return
	}
	o.nextNote = note
	o.notePending = true
}

// Note returns the sounding note, if any.
func (o *Oscillator) Note() (uint8, bool) {
	if o == nil || !o.playing {
		return 0, false
	}
	return o.note, true
}

// IsActive reports whether a note is sounding or about to start.
func (o *Oscillator) IsActive() bool {
	return o != nil && (o.playing || o.notePending)
}

// Sample advances the oscillator by one tick.
func (o *Oscillator) Sample() int16 {
	if o == nil || !o.ready {
		return 0
	}
	if !o.playing {
		if !o.notePending {
			return 0
		}
		o.commit()
		o.playing = true
		o.phase.Reset()
	} else if o.phase.Step(noteSteps[o.note], waveSamples) {
		o.commit()
	}
	return o.table()[o.phase.Int()]
}

func (o *Oscillator) commit() {
	if o.notePending {
		o.note = o.nextNote
		o.notePending = false
	}
	if o.wavePending {
		o.waveform = o.nextWaveform
		o.wavePending = false
	}
}

func (o *Oscillator) table() *wavetable {
	octave := int(o.note) / 12
	if o.waveform == Sine || octave >= wavetableOctaves {
		return &sineTable
	}
	switch o.waveform {
	case Square:
		return &squareTables[octave]
	case Triangle:
		return &triangleTables[octave]
	case Saw:
		return &sawTables[octave]
	}
	return &sineTable
}
