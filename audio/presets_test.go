package audio

import "testing"

func TestPresets(t *testing.T) {
	for _, name := range Presets() {
		s := NewSynth(NewProps(), nil, Config{})
		if err := LoadPreset(name, s); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	s := NewSynth(NewProps(), nil, Config{})
	if err := LoadPreset("pad", s); err != nil {
		t.Fatal(err)
	}
	s.Sync()
	if want, got := LowPass, s.filter.Type(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := uint8(90), s.env.Attack(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if err := LoadPreset("nope", s); err == nil {
		t.Error("expected an error")
	}
}
