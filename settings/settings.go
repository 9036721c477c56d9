// Package settings persists synth parameters in a small byte image, laid out
// like an EEPROM: one byte per parameter at a fixed offset and 0xff wherever
// nothing was ever written.
package settings

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mrdg/dbsynth/audio"
)

const (
	// Size is the length of a settings image.
	Size = 64

	// Version is the image layout written by this package.
	Version = 1

	unprogrammed  = 0xff
	versionOffset = 1
)

var ErrVersion = errors.New("settings: unsupported version")

type field struct {
	key    string
	offset int
}

// Pending fields are written in this order.
var fields = []field{
	{audio.KeyChannel, 2},
	{audio.KeyWaveform, 16},
	{audio.KeyEnvelopeType, 36},
	{audio.KeyAttack, 32},
	{audio.KeyDecay, 33},
	{audio.KeySustain, 34},
	{audio.KeyRelease, 35},
	{audio.KeyFilterType, 48},
	{audio.KeyCutoff, 49},
}

func lookup(key string) (field, bool) {
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// Keys returns the persisted parameter keys.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

// Storage is the medium holding the image.
type Storage interface {
	io.ReaderAt
	io.WriterAt
}

// Store caches an image and writes changed fields back one at a time. It is
// not safe for concurrent use.
type Store struct {
	storage Storage
	data    [Size]byte
	pending [Size]bool
	write   bool
}

// Factory builds an image holding values.
func Factory(values map[string]uint8) [Size]byte {
	var data [Size]byte
	for i := range data {
		data[i] = unprogrammed
	}
	data[versionOffset] = Version
	for _, f := range fields {
		if v, ok := values[f.key]; ok {
			data[f.offset] = v
		}
	}
	return data
}

// Open reads the image from storage. An image that was never written is
// replaced by the factory image. A version mismatch is reported with
// ErrVersion, but the returned Store can still be used.
func Open(storage Storage, factory map[string]uint8) (*Store, error) {
	s := &Store{storage: storage}
	for i := range s.data {
		s.data[i] = unprogrammed
	}
	if _, err := storage.ReadAt(s.data[:], 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if s.data[versionOffset] == unprogrammed {
		s.data = Factory(factory)
		if _, err := storage.WriteAt(s.data[:], 0); err != nil {
			return nil, fmt.Errorf("write factory settings: %w", err)
		}
	}
	if v := s.data[versionOffset]; v != Version {
		return s, fmt.Errorf("%w: %d", ErrVersion, v)
	}
	return s, nil
}

// OpenFile opens the image stored at path, creating the file if needed.
func OpenFile(path string, factory map[string]uint8) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	s, err := Open(f, factory)
	if s == nil {
		f.Close()
	}
	return s, err
}

// Close closes the storage if it can be closed.
func (s *Store) Close() error {
	if c, ok := s.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Get returns the stored value of key. Unprogrammed fields are reported as missing.
func (s *Store) Get(key string) (uint8, bool) {
	f, ok := lookup(key)
	if !ok || s.data[f.offset] == unprogrammed {
		return 0, false
	}
	return s.data[f.offset], true
}

// Values returns every programmed field.
func (s *Store) Values() map[string]uint8 {
	values := make(map[string]uint8)
	for _, f := range fields {
		if v, ok := s.Get(f.key); ok {
			values[f.key] = v
		}
	}
	return values
}

// Set updates key in the cached image and marks it for writing. It reports
// whether the value changed.
func (s *Store) Set(key string, v uint8) bool {
	f, ok := lookup(key)
	if !ok || v == unprogrammed || s.data[f.offset] == v {
		return false
	}
	s.data[f.offset] = v
	s.pending[f.offset] = true
	return true
}

// Pending reports whether any field waits to be written.
func (s *Store) Pending() bool {
	for _, f := range fields {
		if s.pending[f.offset] {
			return true
		}
	}
	return false
}

// StartWrite arms a write pass for the following Task calls.
func (s *Store) StartWrite() {
	s.write = true
}

// Task writes at most one pending field. It reports true once the write
// pass has finished, and false while fields remain or no pass is armed.
func (s *Store) Task() (bool, error) {
	if !s.write {
		return false, nil
	}
	for _, f := range fields {
		if !s.pending[f.offset] {
			continue
		}
		if _, err := s.storage.WriteAt(s.data[f.offset:f.offset+1], int64(f.offset)); err != nil {
			return false, fmt.Errorf("write %s: %w", f.key, err)
		}
		s.pending[f.offset] = false
		return false, nil
	}
	s.write = false
	return true, nil
}

// Flush writes every pending field.
func (s *Store) Flush() error {
	s.StartWrite()
	for {
		done, err := s.Task()
		if err != nil || done {
			return err
		}
	}
}
