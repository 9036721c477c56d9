package midi

import (
	"fmt"
	"log"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Inputs lists the names of the available MIDI input ports.
func Inputs() ([]string, error) {
	ins, err := drivers.Ins()
	if err != nil {
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	var names []string
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

// OpenInput listens on the first input port whose name contains name and
// pushes every received message onto q. The returned function closes the port.
func OpenInput(name string, q *Queue) (func(), error) {
	ins, err := drivers.Ins()
	if err != nil {
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	var found drivers.In
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(name)) {
			found = in
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("midi input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return nil, fmt.Errorf("open midi input %s: %w", found, err)
	}
	stop, err := gomidi.ListenTo(found, func(msg gomidi.Message, _ int32) {
		q.Push(msg.Bytes()...)
	}, gomidi.HandleError(func(err error) {
		log.Printf("midi input %s: %v", found, err)
	}))
	if err != nil {
		found.Close()
		return nil, fmt.Errorf("listen on midi input %s: %w", found, err)
	}
	return func() {
		stop()
		found.Close()
	}, nil
}

// Close releases the MIDI driver.
func Close() {
	drivers.Close()
}

// NoteOnBytes returns the bytes of a note on message.
func NoteOnBytes(channel, key, velocity uint8) []byte {
	return gomidi.NoteOn(channel, key, velocity).Bytes()
}

// NoteOffBytes returns the bytes of a note off message.
func NoteOffBytes(channel, key uint8) []byte {
	return gomidi.NoteOff(channel, key).Bytes()
}

// ControlChangeBytes returns the bytes of a control change message.
func ControlChangeBytes(channel, controller, value uint8) []byte {
	return gomidi.ControlChange(channel, controller, value).Bytes()
}

// Describe renders a message for logging.
func Describe(status byte, data []byte) string {
	msg := append([]byte{status}, data...)
	return gomidi.Message(msg).String()
}

// Logged wraps h so that every dispatched message is logged with logf first.
func Logged(h Handler, logf func(format string, args ...interface{})) Handler {
	return &loggedHandler{next: h, logf: logf}
}

type loggedHandler struct {
	next Handler
	logf func(string, ...interface{})
}

func (l *loggedHandler) ChannelEvent(cmd Command, ch uint8, data []byte) {
	l.logf("midi: %s", Describe(byte(cmd)<<4|ch&0x0f, data))
	l.next.ChannelEvent(cmd, ch, data)
}

func (l *loggedHandler) SystemEvent(cmd SystemCommand, data []byte) {
	l.logf("midi: %s", Describe(byte(System)<<4|byte(cmd), data))
	l.next.SystemEvent(cmd, data)
}
