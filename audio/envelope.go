package audio

import (
	"fmt"
	"strings"

	"github.com/mrdg/dbsynth/fixed"
)

type envelopeState uint8

const (
	stateOff envelopeState = iota
	stateAttack
	stateDecay
	stateSustain
	stateRelease
)

var stateNames = [...]string{"off", "attack", "decay", "sustain", "release"}

func (s envelopeState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// EnvelopeType selects the curve used by the attack, decay and release segments.
type EnvelopeType uint8

const (
	Exponential EnvelopeType = iota
	Linear
	numEnvelopeTypes
)

var envelopeTypeNames = [numEnvelopeTypes]string{"exponential", "linear"}

func (t EnvelopeType) Valid() bool { return t < numEnvelopeTypes }

func (t EnvelopeType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return envelopeTypeNames[t]
}

func ParseEnvelopeType(s string) (EnvelopeType, error) {
	for i, name := range envelopeTypeNames {
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return EnvelopeType(i), nil
		}
	}
	return 0, fmt.Errorf("not a valid envelope type: %v", s)
}

// Envelope is an ADSR generator producing 8-bit gain levels. Every segment
// interpolates from the level it was entered at (start) toward its target
// (end), so transitions never jump.
type Envelope struct {
	ready bool
	state envelopeState
	typ   EnvelopeType

	attack, decay, sustain, release uint8

	level      uint8
	start, end uint8
	phase      fixed.Phase

	// Snapshotted when a segment is entered.
	step  uint32
	curve *curve
}

const maxParam = 0x80

// expand7 maps a 7-bit value onto the full 8-bit range.
func expand7(v uint8) uint8 {
	return v<<1 | v>>6
}

func NewEnvelope() *Envelope {
	return &Envelope{ready: true, sustain: maxParam - 1}
}

func (e *Envelope) enter(s envelopeState) {
	e.state = s
	e.start = e.level
	e.phase.Reset()
	e.step, e.curve = 0, nil
	switch s {
	case stateAttack:
		e.end = EnvelopeAmplitude
		e.step, e.curve = envSteps[e.attack], &attackCurve
	case stateDecay:
		e.end = expand7(e.sustain)
		e.step, e.curve = envSteps[e.decay], &decayReleaseCurve
	case stateSustain:
		e.end = e.level
	case stateRelease:
		e.end = 0
		e.step, e.curve = envSteps[e.release], &decayReleaseCurve
	case stateOff:
		e.level, e.start, e.end = 0, 0, 0
	}
	if e.curve != nil && e.typ == Linear {
		e.curve = &linearCurve
	}
}

// GateOn starts the attack segment from the current level.
func (e *Envelope) GateOn() {
	if e == nil || !e.ready {
		return
	}
	e.enter(stateAttack)
}

// GateOff starts the release segment. With force the envelope is silenced
// immediately.
func (e *Envelope) GateOff(force bool) {
	if e == nil || !e.ready {
		return
	}
	if force {
		e.enter(stateOff)
		return
	}
	if e.state != stateOff {
		e.enter(stateRelease)
	}
}

// Next advances the envelope by one tick and returns the new level.
func (e *Envelope) Next() uint8 {
	if e == nil || !e.ready {
		return 0
	}
	switch e.state {
	case stateOff:
		return 0
	case stateSustain:
		e.level = e.end
		return e.level
	}
	if e.phase.Step(e.step, envSamples) {
		e.level = e.end
		switch e.state {
		case stateAttack:
			e.enter(stateDecay)
		case stateDecay:
			e.enter(stateSustain)
		case stateRelease:
			e.enter(stateOff)
		}
		return e.level
	}
	e.level = fixed.Lerp8(e.start, e.end, fixed.Balance(e.curve[e.phase.Int()]))
	return e.level
}

// Level returns the most recent output level without advancing.
func (e *Envelope) Level() uint8 {
	if e == nil {
		return 0
	}
	return e.level
}

// Active reports whether the envelope is producing sound.
func (e *Envelope) Active() bool {
	return e != nil && e.state != stateOff
}

func (e *Envelope) setParam(p *uint8, v uint8) bool {
	if e == nil || !e.ready || v >= maxParam || *p == v {
		return false
	}
	*p = v
	return true
}

// SetAttack sets the attack time index. It applies from the next attack segment.
func (e *Envelope) SetAttack(v uint8) bool { return e.setParam(&e.attack, v) }

// SetDecay sets the decay time index.
func (e *Envelope) SetDecay(v uint8) bool { return e.setParam(&e.decay, v) }

// SetSustain sets the sustain level index; 0x7f is full scale.
func (e *Envelope) SetSustain(v uint8) bool { return e.setParam(&e.sustain, v) }

// SetRelease sets the release time index.
func (e *Envelope) SetRelease(v uint8) bool { return e.setParam(&e.release, v) }

func (e *Envelope) SetType(t EnvelopeType) bool {
	if e == nil || !e.ready || !t.Valid() || e.typ == t {
		return false
	}
	e.typ = t
	return true
}

func (e *Envelope) Attack() uint8 {
	if e == nil {
		return 0
	}
	return e.attack
}

func (e *Envelope) Decay() uint8 {
	if e == nil {
		return 0
	}
	return e.decay
}

func (e *Envelope) Sustain() uint8 {
	if e == nil {
		return 0
	}
	return e.sustain
}

func (e *Envelope) Release() uint8 {
	if e == nil {
		return 0
	}
	return e.release
}

func (e *Envelope) Type() EnvelopeType {
	if e == nil {
		return Exponential
	}
	return e.typ
}
