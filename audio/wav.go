package audio

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/youpy/go-wav"
)

// WavRenderer is a Sink that renders into a 16-bit stereo wav file instead
// of a sound card. It renders in real time so that notes played from other
// goroutines land where they would on a live output.
type WavRenderer struct {
	mixer
	path    string
	frames  int // total number of frames to render
	pace    time.Duration
	buf     [][]float32
	samples []wav.Sample

	once sync.Once
	stop chan struct{}
	done chan struct{}
	err  error
}

func NewWavSink(path string, seconds float64) (*WavRenderer, error) {
	if path == "" {
		return nil, fmt.Errorf("wav backend needs an output file")
	}
	if seconds <= 0 {
		return nil, fmt.Errorf("wav backend needs a positive duration: %v", seconds)
	}
	r := &WavRenderer{
		path:   path,
		frames: int(seconds * SampleRate),
		pace:   time.Duration(bufferSize) * time.Second / SampleRate,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	r.buf = make([][]float32, numChannels)
	for c := range r.buf {
		r.buf[c] = make([]float32, bufferSize)
	}
	return r, nil
}

func (r *WavRenderer) Start() error {
	go r.run()
	return nil
}

// Done is closed once the file has been written.
func (r *WavRenderer) Done() <-chan struct{} {
	return r.done
}

// Stop ends rendering early and writes what was rendered so far.
func (r *WavRenderer) Stop() error {
	r.once.Do(func() { close(r.stop) })
	<-r.done
	return r.err
}

func (r *WavRenderer) run() {
	defer close(r.done)
	var tick <-chan time.Time
	if r.pace > 0 {
		t := time.NewTicker(r.pace)
		defer t.Stop()
		tick = t.C
	}
	for len(r.samples) < r.frames {
		if tick != nil {
			select {
			case <-r.stop:
				r.err = r.write()
				return
			case <-tick:
			}
		} else {
			select {
			case <-r.stop:
				r.err = r.write()
				return
			default:
			}
		}
		r.render(min(bufferSize, r.frames-len(r.samples)))
	}
	r.err = r.write()
}

func (r *WavRenderer) render(n int) {
	buf := make([][]float32, len(r.buf))
	for c := range r.buf {
		buf[c] = r.buf[c][:n]
	}
	r.Process(buf)
	for i := 0; i < n; i++ {
		var s wav.Sample
		for c := range buf {
			s.Values[c] = toInt16(buf[c][i])
		}
		r.samples = append(r.samples, s)
	}
}

func (r *WavRenderer) write() error {
	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", r.path, err)
	}
	if err := WriteWav(f, r.samples); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return f.Close()
}

// WriteWav writes 16-bit stereo samples at SampleRate to w.
func WriteWav(w io.Writer, samples []wav.Sample) error {
	ww := wav.NewWriter(w, uint32(len(samples)), numChannels, SampleRate, 16)
	return ww.WriteSamples(samples)
}

func toInt16(f float32) int {
	v := math.Round(float64(f) * math.MaxInt16)
	return int(math.Max(math.MinInt16, math.Min(math.MaxInt16, v)))
}
