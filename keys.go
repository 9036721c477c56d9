package main

import (
	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/mrdg/dbsynth/midi"
)

// Two rows of the keyboard laid out like a piano octave starting at C.
var pianoKeys = map[rune]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5, 't': 6,
	'g': 7, 'y': 8, 'h': 9, 'u': 10, 'j': 11, 'k': 12,
}

const (
	minOctave = 0
	maxOctave = 9
)

// keyPlayer turns key presses into MIDI. Terminals do not report key
// releases, so a note sounds until the next key is pressed.
type keyPlayer struct {
	env      *env
	octave   int
	held     int
	velocity int
}

func newKeyPlayer(e *env) *keyPlayer {
	return &keyPlayer{env: e, octave: 4, held: -1, velocity: 100}
}

func (p *keyPlayer) handle(key keys.Key) (stop bool) {
	switch key.Code {
	case keys.CtrlC, keys.Escape:
		p.release()
		return true
	case keys.Space:
		p.held = -1
		p.env.send(midi.ControlChangeBytes(p.env.channel(), midi.AllSoundOff, 0)...)
	case keys.RuneKey:
		if len(key.Runes) == 0 {
			return false
		}
		p.press(key.Runes[0])
	}
	return false
}

func (p *keyPlayer) press(r rune) {
	switch r {
	case 'z':
		p.octave = max(p.octave-1, minOctave)
		return
	case 'x':
		p.octave = min(p.octave+1, maxOctave)
		return
	case 'c':
		p.velocity = max(p.velocity-16, 1)
		return
	case 'v':
		p.velocity = min(p.velocity+16, 0x7f)
		return
	}
	semitone, ok := pianoKeys[r]
	if !ok {
		return
	}
	note := 12*(p.octave+1) + semitone
	if note > 0x7f {
		return
	}
	// The voice is monophonic: a new note takes it over from the held one.
	p.env.send(midi.NoteOnBytes(p.env.channel(), uint8(note), uint8(p.velocity))...)
	p.held = note
}

func (p *keyPlayer) release() {
	if p.held < 0 {
		return
	}
	p.env.send(midi.NoteOffBytes(p.env.channel(), uint8(p.held))...)
	p.held = -1
}

// playKeys plays the synth from the computer keyboard until Escape or Ctrl-C.
func playKeys(e *env) error {
	e.setLive(true)
	defer e.setLive(false)
	p := newKeyPlayer(e)
	return keyboard.Listen(func(key keys.Key) (stop bool, err error) {
		return p.handle(key), nil
	})
}
