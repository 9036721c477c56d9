// Package midi decodes MIDI byte streams one byte at a time and moves raw
// MIDI bytes between goroutines.
package midi

import "fmt"

// Command is the high nibble of a status byte.
type Command uint8

const (
	NoteOff Command = 0x8 + iota
	NoteOn
	PolyPressure
	ControlChange
	ProgramChange
	ChannelPressure
	PitchBend
	System
)

var commandNames = map[Command]string{
	NoteOff:         "NoteOff",
	NoteOn:          "NoteOn",
	PolyPressure:    "PolyPressure",
	ControlChange:   "ControlChange",
	ProgramChange:   "ProgramChange",
	ChannelPressure: "ChannelPressure",
	PitchBend:       "PitchBend",
	System:          "System",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Command(%#x)", uint8(c))
}

// SystemCommand is the low nibble of a 0xFn status byte.
type SystemCommand uint8

const (
	SysExStart SystemCommand = iota
	TimeCode
	SongPosition
	SongSelect
	_
	_
	TuneRequest
	SysExEnd
	TimingClock
	_
	Start
	Continue
	Stop
	_
	ActiveSensing
	Reset
)

// Realtime reports whether c is a single byte real-time message. These may
// appear in the middle of any other message.
func (c SystemCommand) Realtime() bool {
	return c >= TimingClock
}

const statusBit = 0x80

// dataLen returns the number of data bytes that follow status.
func dataLen(status byte) int {
	switch Command(status >> 4) {
	case ProgramChange, ChannelPressure:
		return 1
	case System:
		switch SystemCommand(status & 0x0f) {
		case TimeCode, SongSelect:
			return 1
		case SongPosition:
			return 2
		}
		return 0
	}
	return 2
}

// Controller numbers with a fixed meaning in the channel mode range.
const (
	AllSoundOff = 120
	AllNotesOff = 123
)
