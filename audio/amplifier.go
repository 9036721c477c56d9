package audio

import "github.com/mrdg/dbsynth/fixed"

// Amplify scales a sample by the product of two 8-bit levels, typically the
// envelope level and the note velocity.
func Amplify(in int16, level, velocity uint8) int16 {
	return fixed.Scale(in, fixed.MulU8(level, velocity))
}

// DAC10 converts an engine sample to an unsigned 10-bit converter code,
// saturating samples outside ±Amplitude.
func DAC10(s int16) uint16 {
	return uint16(clamp(s) + Amplitude)
}

func clamp(s int16) int16 {
	switch {
	case s > Amplitude:
		return Amplitude
	case s < -Amplitude:
		return -Amplitude
	}
	return s
}
