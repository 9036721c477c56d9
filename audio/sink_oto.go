package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays through oto. Oto pulls interleaved float32 frames through
// Read, which renders them from the mixer.
type OtoSink struct {
	mixer
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex // guards player
	buf     [][]float32
	pending []byte
}

func NewOtoSink() (*OtoSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: numChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   20 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open oto context: %w", err)
	}
	<-ready
	s := &OtoSink{ctx: ctx}
	s.buf = make([][]float32, numChannels)
	for c := range s.buf {
		s.buf[c] = make([]float32, bufferSize)
	}
	return s, nil
}

// Read implements io.Reader for the oto player.
func (s *OtoSink) Read(p []byte) (int, error) {
	var n int
	for n < len(p) {
		if len(s.pending) == 0 {
			s.render()
		}
		c := copy(p[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	return n, nil
}

func (s *OtoSink) render() {
	s.Process(s.buf)
	const frameSize = 4 * numChannels
	out := make([]byte, bufferSize*frameSize)
	for i := 0; i < bufferSize; i++ {
		for c := 0; c < numChannels; c++ {
			binary.LittleEndian.PutUint32(out[i*frameSize+c*4:], math.Float32bits(s.buf[c][i]))
		}
	}
	s.pending = out
}

func (s *OtoSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		return nil
	}
	s.player = s.ctx.NewPlayer(s)
	s.player.Play()
	return nil
}

func (s *OtoSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	return err
}
