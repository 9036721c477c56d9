package audio

import "testing"

func TestFilterConverges(t *testing.T) {
	for _, typ := range []FilterType{LowPass, HighPass} {
		for c := 0; c < numCutoffs; c++ {
			f := NewFilter()
			f.SetType(typ)
			f.SetCutoff(uint8(c))
			for n := 0; n < 500; n++ {
				f.Sample(Amplitude)
			}
			settled := -1
			for n := 0; n < 5000; n++ {
				out := f.Sample(0)
				if out == 0 && settled < 0 {
					settled = n
				}
				if out != 0 && settled >= 0 {
					t.Fatalf("%v cutoff %v: output %v after settling", typ, c, out)
				}
			}
			if settled < 0 {
				t.Errorf("%v cutoff %v: output never reached zero", typ, c)
			}
		}
	}
}

func TestFilterBounded(t *testing.T) {
	for _, typ := range []FilterType{LowPass, HighPass} {
		for c := 0; c < numCutoffs; c++ {
			f := NewFilter()
			f.SetType(typ)
			f.SetCutoff(uint8(c))
			o := NewOscillator(Square)
			o.SetNote(40)
			for n := 0; n < 4096; n++ {
				if out := f.Sample(o.Sample()); out > 4*Amplitude || out < -4*Amplitude {
					t.Fatalf("%v cutoff %v: output %v", typ, c, out)
				}
			}
		}
	}
}

func TestFilterOffPassesThrough(t *testing.T) {
	f := NewFilter()
	f.SetType(LowPass)
	f.SetCutoff(40)
	for n := 0; n < 10; n++ {
		f.Sample(300)
	}
	prevOut, prevIn := f.prevOut, f.prevIn

	f.SetType(FilterOff)
	for _, in := range []int16{-511, 0, 17, 511} {
		if want, got := in, f.Sample(in); want != got {
			t.Errorf("want %v, got %v", want, got)
		}
	}
	if f.prevOut != prevOut || f.prevIn != prevIn {
		t.Error("disabled filter changed its memory")
	}
}

func TestFilterPassesDC(t *testing.T) {
	for c := 0; c < numCutoffs; c++ {
		for _, in := range []int16{400, -400, Amplitude} {
			f := NewFilter()
			f.SetType(LowPass)
			f.SetCutoff(uint8(c))
			var out int16
			for n := 0; n < 5000; n++ {
				out = f.Sample(in)
			}
			if d := out - in; d < -1 || d > 1 {
				t.Errorf("low pass cutoff %v: input %v settled at %v", c, in, out)
			}

			f = NewFilter()
			f.SetType(HighPass)
			f.SetCutoff(uint8(c))
			for n := 0; n < 5000; n++ {
				out = f.Sample(in)
			}
			if out < -1 || out > 1 {
				t.Errorf("high pass cutoff %v: passed DC %v", c, out)
			}
		}
	}
}

func TestFilterSetters(t *testing.T) {
	f := NewFilter()
	if f.SetCutoff(0x7f) {
		t.Error("default cutoff reported as a change")
	}
	if f.SetCutoff(0x80) {
		t.Error("accepted cutoff 0x80")
	}
	if !f.SetCutoff(0) {
		t.Error("rejected cutoff 0")
	}
	if f.SetType(numFilterTypes) {
		t.Error("accepted an invalid type")
	}
	if f.SetType(FilterOff) {
		t.Error("default type reported as a change")
	}
	if !f.SetType(HighPass) {
		t.Error("rejected high pass")
	}
}

func TestParseFilterType(t *testing.T) {
	for in, want := range map[string]FilterType{
		"off":      FilterOff,
		"lpf":      LowPass,
		"LP":       LowPass,
		"highpass": HighPass,
		"hpf":      HighPass,
	} {
		got, err := ParseFilterType(in)
		if err != nil {
			t.Fatal(err)
		}
		if want != got {
			t.Errorf("%s: want %v, got %v", in, want, got)
		}
	}
	if _, err := ParseFilterType("bpf"); err == nil {
		t.Error("expected an error")
	}
}

func TestCoefficientTables(t *testing.T) {
	for i := 1; i < numCutoffs; i++ {
		if cutoffFrequencies[i] < cutoffFrequencies[i-1] {
			t.Fatalf("cutoff table not monotonic at %v", i)
		}
	}
	if want, got := "20Hz", CutoffDescription(0); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := "20.00kHz", CutoffDescription(0x7f); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	for i, c := range highPassCoefs {
		if c.b0 != -c.b1 {
			t.Errorf("high pass %v: zero is not at DC: %+v", i, c)
		}
	}
	for i, c := range lowPassCoefs {
		if sum := int(c.a1) + int(c.b0) + int(c.b1); sum != 128 {
			t.Errorf("low pass %v: coefficients sum to %v: %+v", i, sum, c)
		}
		if c.b0 == 0 {
			t.Errorf("low pass %v: no feed-forward: %+v", i, c)
		}
	}
}
