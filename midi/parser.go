package midi

// Source is a non-blocking MIDI byte input.
type Source interface {
	// Available reports whether Next has a byte to return.
	Available() bool
	Next() byte
}

// Handler receives complete messages from a Parser. The data slice is only
// valid for the duration of the call.
type Handler interface {
	ChannelEvent(cmd Command, channel uint8, data []byte)
	SystemEvent(cmd SystemCommand, data []byte)
}

type parseState uint8

const (
	waitingForStatus parseState = iota
	haveStatus
	haveData1
	haveData2
	readyToDispatch
)

// Parser assembles MIDI messages from a byte stream. Channel messages keep
// their status byte after dispatch, so a sender may omit repeated status
// bytes (running status). Malformed input never stops the parser: it waits
// for the next status byte.
type Parser struct {
	handler Handler
	state   parseState
	buf     [3]byte
	n       int // data bytes in buf
	want    int
}

func NewParser(h Handler) *Parser {
	return &Parser{handler: h}
}

// Task consumes at most one byte from src.
func (p *Parser) Task(src Source) bool {
	if p == nil || src == nil || !src.Available() {
		return false
	}
	p.Feed(src.Next())
	return true
}

// Feed processes a single byte, dispatching any message it completes.
func (p *Parser) Feed(b byte) {
	if p == nil {
		return
	}
	if b&statusBit != 0 {
		if c := SystemCommand(b & 0x0f); Command(b>>4) == System && c.Realtime() {
			if p.handler != nil {
				p.handler.SystemEvent(c, nil)
			}
			return
		}
		p.buf[0] = b
		p.n = 0
		p.want = dataLen(b)
		p.state = haveStatus
		if p.want == 0 {
			p.dispatch()
		}
		return
	}
	if p.state == waitingForStatus {
		return
	}
	p.buf[1+p.n] = b
	p.n++
	p.state = haveStatus + parseState(p.n)
	if p.n == p.want {
		p.dispatch()
	}
}

func (p *Parser) dispatch() {
	p.state = readyToDispatch
	status := p.buf[0]
	data := p.buf[1 : 1+p.n]
	if cmd := Command(status >> 4); cmd != System {
		if p.handler != nil {
			p.handler.ChannelEvent(cmd, status&0x0f, data)
		}
		p.n = 0
		p.state = haveStatus
		return
	}
	if p.handler != nil {
		p.handler.SystemEvent(SystemCommand(status&0x0f), data)
	}
	p.n = 0
	p.state = waitingForStatus
}

// Reset drops any partial message and the running status.
func (p *Parser) Reset() {
	if p != nil {
		p.state = waitingForStatus
		p.n = 0
	}
}
