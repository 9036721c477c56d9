package audio

import (
	"math"
	"sync/atomic"

	"github.com/mrdg/dbsynth/internal/ring"
)

const (
	blockSize  = 16 // this gives about 0.33ms accuracy for sequenced events and parameter changes
	bufferSize = 512
)

type event struct {
	pitch    int
	offset   int
	velocity int
	duration int
}

type scheduledOff struct {
	pitch int
	at    uint64
}

// Instrument renders a Synth into audio buffers. Parameter changes are picked
// up at block boundaries and sequenced notes are started at block offsets.
type Instrument struct {
	*Props
	synth   *Synth
	events  *ring.Buffer[event]
	level   *atomic.Value
	offs    []scheduledOff
	clock   uint64 // samples rendered so far
	scratch []int16
}

const propLevel = "level"

func NewInstrument(props *Props, synth *Synth) *Instrument {
	return &Instrument{
		Props:  props,
		synth:  synth,
		events: ring.New[event](64),
		level:  props.MustRegister(propLevel, setLevel, 0.),
	}
}

// Synth returns the voice played by the instrument.
func (i *Instrument) Synth() *Synth { return i.synth }

// PlayNote schedules a note offset samples into the next buffer. It must be
// called from the audio goroutine, typically by a Ticker.
func (i *Instrument) PlayNote(offset, pitch, velocity, duration int) {
	i.events.Push(event{
		pitch:    pitch,
		offset:   offset,
		velocity: velocity,
		duration: duration,
	})
}

// Render fills out with engine samples.
func (i *Instrument) Render(out []int16) {
	for n := 0; n < len(out); n += blockSize {
		end := n + blockSize
		if end > len(out) {
			end = len(out)
		}
		i.startBlock(n, end)
		for j := n; j < end; j++ {
			out[j] = i.synth.Tick()
		}
		i.clock += uint64(end - n)
	}
	i.flushEvents()
}

// Process adds the instrument's output to both channels of samples. Engine
// samples pass through the DAC conversion before they are scaled to floats.
func (i *Instrument) Process(samples [][]float32) {
	if len(samples) == 0 {
		return
	}
	n := len(samples[0])
	if cap(i.scratch) < n {
		i.scratch = make([]int16, n)
	}
	out := i.scratch[:n]
	i.Render(out)

	db := i.level.Load().(float64)
	gain := float32(math.Pow(10, db/20.0) / Amplitude)
	for j, s := range out {
		sample := gain * float32(int(DAC10(s))-Amplitude)
		for c := range samples {
			samples[c][j] += sample
		}
	}
}

func (i *Instrument) startBlock(start, end int) {
	i.synth.Sync()
	if i.synth.mode == ModePolled {
		i.synth.PollMIDI()
	}
	i.releaseDue()
	bufStart := i.clock - uint64(start)
	for {
		ev, ok := i.events.Peek()
		if !ok || ev.offset >= end {
			return
		}
		i.events.Pop()
		i.playEvent(ev, bufStart+uint64(max(ev.offset, 0)))
	}
}

// flushEvents starts notes scheduled past the end of the buffer.
func (i *Instrument) flushEvents() {
	for {
		ev, ok := i.events.Pop()
		if !ok {
			return
		}
		i.playEvent(ev, i.clock)
	}
}

func (i *Instrument) playEvent(ev event, at uint64) {
	if ev.pitch < 0 || ev.pitch >= NumNotes {
		return
	}
	i.synth.NoteOn(uint8(ev.pitch), uint8(ev.velocity))
	if ev.duration > 0 {
		i.offs = append(i.offs, scheduledOff{pitch: ev.pitch, at: at + uint64(ev.duration)})
	}
}

func (i *Instrument) releaseDue() {
	keep := i.offs[:0]
	for _, off := range i.offs {
		if off.at <= i.clock {
			i.synth.NoteOff(uint8(off.pitch))
			continue
		}
		keep = append(keep, off)
	}
	i.offs = keep
}
