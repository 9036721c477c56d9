package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"init": {
		KeyWaveform:     "square",
		KeyEnvelopeType: "exp",
		KeyAttack:       0,
		KeyDecay:        0,
		KeySustain:      0x7f,
		KeyRelease:      0,
		KeyFilterType:   "off",
		KeyCutoff:       0x7f,
	},
	"lame-bass": {
		KeyWaveform:     "saw",
		KeyEnvelopeType: "exp",
		KeyAttack:       0,
		KeyDecay:        40,
		KeySustain:      0,
		KeyRelease:      20,
		KeyFilterType:   "lpf",
		KeyCutoff:       60,
	},
	"pluck": {
		KeyWaveform:     "triangle",
		KeyEnvelopeType: "exp",
		KeyAttack:       0,
		KeyDecay:        30,
		KeySustain:      0,
		KeyRelease:      30,
		KeyFilterType:   "off",
	},
	"pad": {
		KeyWaveform:     "saw",
		KeyEnvelopeType: "lin",
		KeyAttack:       90,
		KeyDecay:        80,
		KeySustain:      100,
		KeyRelease:      95,
		KeyFilterType:   "lpf",
		KeyCutoff:       80,
	},
	"thin-lead": {
		KeyWaveform:     "square",
		KeyEnvelopeType: "lin",
		KeyAttack:       5,
		KeyDecay:        50,
		KeySustain:      90,
		KeyRelease:      25,
		KeyFilterType:   "hpf",
		KeyCutoff:       40,
	},
}

// Presets returns the preset names in sorted order.
func Presets() []string {
	var names []string
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadPreset applies every value of the named preset to d. Keys are applied
// in sorted order and loading stops at the first error.
func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := d.Set(k, p[k]); err != nil {
			return err
		}
	}
	return nil
}
