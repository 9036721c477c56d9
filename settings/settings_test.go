package settings

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mrdg/dbsynth/audio"
)

type memory struct {
	data   []byte
	writes []int // offsets of single byte writes
}

func blank() *memory {
	m := &memory{data: make([]byte, Size)}
	for i := range m.data {
		m.data[i] = 0xff
	}
	return m
}

func (m *memory) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, m.data[off:]), nil
}

func (m *memory) WriteAt(p []byte, off int64) (int, error) {
	if len(p) == 1 {
		m.writes = append(m.writes, int(off))
	}
	return copy(m.data[off:], p), nil
}

var factory = map[string]uint8{
	audio.KeyChannel:  0,
	audio.KeyWaveform: 1,
	audio.KeySustain:  0x7f,
	audio.KeyCutoff:   0x7f,
}

func TestOpenBlank(t *testing.T) {
	m := blank()
	s, err := Open(m, factory)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := byte(Version), m.data[1]; want != got {
		t.Errorf("version: want %v, got %v", want, got)
	}
	if want, got := byte(1), m.data[16]; want != got {
		t.Errorf("waveform: want %v, got %v", want, got)
	}
	if want, got := byte(0xff), m.data[32]; want != got {
		t.Errorf("attack should be unprogrammed, got %v", got)
	}
	if !reflect.DeepEqual(factory, s.Values()) {
		t.Errorf("want %v, got %v", factory, s.Values())
	}
}

func TestOpenKeepsImage(t *testing.T) {
	m := blank()
	m.data[1] = Version
	m.data[2] = 9
	m.data[49] = 33
	s, err := Open(m, factory)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]uint8{audio.KeyChannel: 9, audio.KeyCutoff: 33}
	if got := s.Values(); !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestOpenVersion(t *testing.T) {
	m := blank()
	m.data[1] = 7
	s, err := Open(m, factory)
	if !errors.Is(err, ErrVersion) {
		t.Fatalf("want ErrVersion, got %v", err)
	}
	if s == nil {
		t.Fatal("store should be usable after a version mismatch")
	}
}

func TestTask(t *testing.T) {
	m := blank()
	s, err := Open(m, factory)
	if err != nil {
		t.Fatal(err)
	}
	if s.Set(audio.KeyWaveform, 1) {
		t.Error("unchanged value reported as a change")
	}
	if s.Set("osc.detune", 1) {
		t.Error("unknown key accepted")
	}
	s.Set(audio.KeyCutoff, 20)
	s.Set(audio.KeyAttack, 5)
	s.Set(audio.KeyChannel, 3)
	s.Set(audio.KeyCutoff, 21)

	if done, _ := s.Task(); done {
		t.Fatal("task ran before StartWrite")
	}
	if len(m.writes) != 0 {
		t.Fatal("wrote without StartWrite")
	}

	s.StartWrite()
	var calls int
	for {
		done, err := s.Task()
		if err != nil {
			t.Fatal(err)
		}
		calls++
		if done {
			break
		}
	}
	if want, got := 4, calls; want != got {
		t.Errorf("want %v task calls, got %v", want, got)
	}
	if want, got := []int{2, 32, 49}, m.writes; !reflect.DeepEqual(want, got) {
		t.Errorf("write order: want %v, got %v", want, got)
	}
	if want, got := byte(21), m.data[49]; want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if s.Pending() {
		t.Error("fields still pending")
	}
	if done, _ := s.Task(); done {
		t.Error("task kept running after the pass finished")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.bin")
	s, err := OpenFile(path, factory)
	if err != nil {
		t.Fatal(err)
	}
	s.Set(audio.KeyRelease, 44)
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := Size, len(data); want != got {
		t.Fatalf("want %v bytes, got %v", want, got)
	}

	s, err = OpenFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if v, ok := s.Get(audio.KeyRelease); !ok || v != 44 {
		t.Errorf("release not persisted: %v %v", v, ok)
	}
	if v, ok := s.Get(audio.KeyWaveform); !ok || v != 1 {
		t.Errorf("factory value lost: %v %v", v, ok)
	}
}
