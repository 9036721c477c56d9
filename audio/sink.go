package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

const numChannels = 2

type Source interface {
	Process([][]float32)
}

type Ticker interface {
	Tick(numSamples int)
}

// Sink pulls audio from its sources and sends it to an output.
type Sink interface {
	AddSources(sources ...Source)
	AddTicker(ticker Ticker)
	Start() error
	Stop() error
}

// NewSink opens the output named by backend: portaudio, oto or wav. The wav
// backend writes to path and stops by itself after seconds of audio.
func NewSink(backend, path string, seconds float64) (Sink, error) {
	switch backend {
	case "portaudio", "pa":
		return NewPortAudioSink()
	case "oto":
		return NewOtoSink()
	case "wav":
		return NewWavSink(path, seconds)
	}
	return nil, fmt.Errorf("unknown audio backend: %v", backend)
}

// mixer sums its sources into a buffer after advancing the tickers.
type mixer struct {
	sources []Source
	tickers []Ticker
}

func (m *mixer) AddSources(sources ...Source) {
	m.sources = append(m.sources, sources...)
}

func (m *mixer) AddTicker(ticker Ticker) {
	m.tickers = append(m.tickers, ticker)
}

func (m *mixer) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	if len(samples) == 0 {
		return
	}
	for _, ticker := range m.tickers {
		ticker.Tick(len(samples[0]))
	}
	for _, source := range m.sources {
		source.Process(samples)
	}
}

type PortAudioSink struct {
	mixer
	stream *portaudio.Stream
}

func NewPortAudioSink() (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("init portaudio: %w", err)
	}
	var s PortAudioSink
	stream, err := portaudio.OpenDefaultStream(0, numChannels, SampleRate, bufferSize, s.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open portaudio stream: %w", err)
	}
	s.stream = stream
	return &s, nil
}

func (s *PortAudioSink) Start() error {
	return s.stream.Start()
}

func (s *PortAudioSink) Stop() error {
	s.stream.Close()
	portaudio.Terminate()
	return nil
}
