package audio

import (
	"fmt"
	"sync/atomic"

	"github.com/mrdg/dbsynth/midi"
)

const (
	KeyChannel      = "midi.channel"
	KeyWaveform     = "osc.waveform"
	KeyEnvelopeType = "adsr.type"
	KeyAttack       = "adsr.attack"
	KeyDecay        = "adsr.decay"
	KeySustain      = "adsr.sustain"
	KeyRelease      = "adsr.release"
	KeyFilterType   = "filter.type"
	KeyCutoff       = "filter.cutoff"
)

var paramKeys = []string{
	KeyChannel,
	KeyWaveform,
	KeyEnvelopeType,
	KeyAttack,
	KeyDecay,
	KeySustain,
	KeyRelease,
	KeyFilterType,
	KeyCutoff,
}

// ParamKeys returns the names of the synth parameters.
func ParamKeys() []string {
	return append([]string(nil), paramKeys...)
}

// Mode selects where MIDI input is drained.
type Mode int

const (
	// ModeInterrupt drains one MIDI byte at the start of every tick.
	ModeInterrupt Mode = iota
	// ModePolled leaves draining to explicit PollMIDI calls.
	ModePolled
)

func ParseMode(s string) (Mode, error) {
	switch s {
	case "interrupt", "isr":
		return ModeInterrupt, nil
	case "polled", "poll":
		return ModePolled, nil
	}
	return 0, fmt.Errorf("unknown midi mode: %v", s)
}

type Config struct {
	Channel      uint8
	Mode         Mode
	Controllers  ControllerMap
	MatchNoteOff bool

	// OnChange is called from the audio goroutine whenever a parameter
	// takes a new value. It must not block.
	OnChange func(key string, value int)

	// Debug, if set, logs every dispatched MIDI message.
	Debug func(format string, args ...interface{})
}

type param struct {
	key   string
	value *atomic.Value
	bands int // number of controller bands; 0 copies 7-bit values directly
	apply func(v uint8) bool
	show  func(v uint8) string
}

// Synth is a monophonic voice: oscillator, envelope, amplifier and filter,
// played through a MIDI byte stream. It is not safe for concurrent use;
// other goroutines change it through its Props and its MIDI source.
type Synth struct {
	*Props
	src    midi.Source
	parser *midi.Parser
	mode   Mode

	osc    *Oscillator
	env    *Envelope
	filter *Filter

	channel  uint8
	note     uint8
	velocity uint8

	controllers  ControllerMap
	matchNoteOff bool
	onChange     func(string, int)
	params       []param
}

func NewSynth(props *Props, src midi.Source, cfg Config) *Synth {
	s := &Synth{
		Props:        props,
		src:          src,
		mode:         cfg.Mode,
		osc:          NewOscillator(Square),
		env:          NewEnvelope(),
		filter:       NewFilter(),
		controllers:  cfg.Controllers,
		matchNoteOff: cfg.MatchNoteOff,
	}
	if s.controllers == nil {
		s.controllers = DefaultControllers
	}
	var h midi.Handler = s
	if cfg.Debug != nil {
		h = midi.Logged(s, cfg.Debug)
	}
	s.parser = midi.NewParser(h)

	s.params = []param{
		{
			key:   KeyChannel,
			value: props.MustRegister(KeyChannel, setIndex(16), int(cfg.Channel&0x0f)),
			bands: 16,
			apply: s.setChannel,
			show:  func(v uint8) string { return fmt.Sprint(v + 1) },
		},
		{
			key:   KeyWaveform,
			value: props.MustRegister(KeyWaveform, setEnum(int(numWaveforms), parseWaveform), int(Square)),
			bands: int(numWaveforms),
			apply: func(v uint8) bool { return s.osc.SetWaveform(Waveform(v)) },
			show:  func(v uint8) string { return Waveform(v).String() },
		},
		{
			key:   KeyEnvelopeType,
			value: props.MustRegister(KeyEnvelopeType, setEnum(int(numEnvelopeTypes), parseEnvelopeType), int(Exponential)),
			bands: int(numEnvelopeTypes),
			apply: func(v uint8) bool { return s.env.SetType(EnvelopeType(v)) },
			show:  func(v uint8) string { return EnvelopeType(v).String() },
		},
		{
			key:   KeyAttack,
			value: props.MustRegister(KeyAttack, setIndex(maxParam), 0),
			apply: s.env.SetAttack,
			show:  TimeDescription,
		},
		{
			key:   KeyDecay,
			value: props.MustRegister(KeyDecay, setIndex(maxParam), 0),
			apply: s.env.SetDecay,
			show:  TimeDescription,
		},
		{
			key:   KeySustain,
			value: props.MustRegister(KeySustain, setIndex(maxParam), maxParam-1),
			apply: s.env.SetSustain,
			show:  LevelDescription,
		},
		{
			key:   KeyRelease,
			value: props.MustRegister(KeyRelease, setIndex(maxParam), 0),
			apply: s.env.SetRelease,
			show:  TimeDescription,
		},
		{
			key:   KeyFilterType,
			value: props.MustRegister(KeyFilterType, setEnum(int(numFilterTypes), parseFilterType), int(FilterOff)),
			bands: int(numFilterTypes),
			apply: func(v uint8) bool { return s.filter.SetType(FilterType(v)) },
			show:  func(v uint8) string { return FilterType(v).String() },
		},
		{
			key:   KeyCutoff,
			value: props.MustRegister(KeyCutoff, setIndex(maxParam), maxParam-1),
			apply: s.filter.SetCutoff,
			show:  CutoffDescription,
		},
	}
	s.Sync()
	s.onChange = cfg.OnChange
	return s
}

func parseWaveform(s string) (int, error) {
	w, err := ParseWaveform(s)
	return int(w), err
}

func parseEnvelopeType(s string) (int, error) {
	t, err := ParseEnvelopeType(s)
	return int(t), err
}

func parseFilterType(s string) (int, error) {
	t, err := ParseFilterType(s)
	return int(t), err
}

func (s *Synth) setChannel(ch uint8) bool {
	if ch > 0x0f || ch == s.channel {
		return false
	}
	s.channel = ch
	return true
}

// Sync applies property values that changed since the last call. It runs
// between samples, so a parameter never changes halfway through a tick.
func (s *Synth) Sync() {
	if s == nil {
		return
	}
	for i := range s.params {
		p := &s.params[i]
		v := uint8(p.value.Load().(int))
		if p.apply(v) && s.onChange != nil {
			s.onChange(p.key, int(v))
		}
	}
}

// Describe formats the current value of a parameter for display.
func (s *Synth) Describe(key string) (string, error) {
	for _, p := range s.params {
		if p.key == key {
			return p.show(uint8(p.value.Load().(int))), nil
		}
	}
	return "", fmt.Errorf("unknown property %s", key)
}

// Tick produces the next output sample.
func (s *Synth) Tick() int16 {
	if s == nil {
		return 0
	}
	if s.mode == ModeInterrupt {
		s.parser.Task(s.src)
	}
	x := s.osc.Sample()
	x = Amplify(x, s.env.Next(), s.velocity)
	x = s.filter.Sample(x)
	return clamp(x)
}

// PollMIDI consumes at most one pending MIDI byte.
func (s *Synth) PollMIDI() bool {
	if s == nil {
		return false
	}
	return s.parser.Task(s.src)
}

// NoteOn starts note. A velocity of zero releases it instead.
func (s *Synth) NoteOn(note, velocity uint8) {
	if note >= NumNotes {
		return
	}
	if velocity == 0 {
		s.NoteOff(note)
		return
	}
	s.note = note
	s.velocity = expand7(velocity & 0x7f)
	s.osc.SetNote(note)
	s.env.GateOn()
}

// NoteOff releases the envelope. With MatchNoteOff set, only the most
// recently started note can be released.
func (s *Synth) NoteOff(note uint8) {
	if s.matchNoteOff && note != s.note {
		return
	}
	s.env.GateOff(false)
}

// Silence cuts the envelope immediately.
func (s *Synth) Silence() {
	s.env.GateOff(true)
}

func (s *Synth) ChannelEvent(cmd midi.Command, ch uint8, data []byte) {
	if ch != s.channel {
		return
	}
	switch cmd {
	case midi.NoteOn:
		if len(data) == 2 {
			s.NoteOn(data[0], data[1])
		}
	case midi.NoteOff:
		if len(data) == 2 {
			s.NoteOff(data[0])
		}
	case midi.ControlChange:
		if len(data) == 2 {
			s.control(data[0], data[1])
		}
	}
}

func (s *Synth) SystemEvent(cmd midi.SystemCommand, data []byte) {
	if cmd == midi.Reset {
		s.Silence()
	}
}

func (s *Synth) control(cc, value uint8) {
	target, ok := s.controllers[cc]
	if !ok {
		return
	}
	switch target {
	case ActionAllSoundOff, ActionAllNotesOff:
		s.Silence()
		return
	}
	for i := range s.params {
		p := &s.params[i]
		if p.key != target {
			continue
		}
		v := int(value & 0x7f)
		if p.bands > 0 {
			v = band(value, p.bands)
		}
		p.value.Store(v)
		if p.apply(uint8(v)) && s.onChange != nil {
			s.onChange(p.key, v)
		}
		return
	}
}
