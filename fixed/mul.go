package fixed

import "math"

// Full is the balance that selects the end of an interpolation range.
const Full = 256

// MulU8 returns the high byte of the 16-bit product a*b.
func MulU8(a, b uint8) uint8 {
	return uint8((uint16(a) * uint16(b)) >> 8)
}

// Scale multiplies a signed sample by gain/256. The product is shifted
// arithmetically, so results round toward negative infinity.
func Scale(x int16, gain uint8) int16 {
	return int16((int32(x) * int32(gain)) >> 8)
}

// Balance widens an 8-bit curve value to the 0..Full range, so that 0xff
// selects the end of a range exactly.
func Balance(v uint8) uint16 {
	return uint16(v) + uint16(v>>7)
}

// Lerp8 moves from start toward end by w/Full. The result is the high byte of
// end*w + start*(Full-w); w is clamped to Full.
func Lerp8(start, end uint8, w uint16) uint8 {
	if w > Full {
		w = Full
	}
	return uint8((uint32(end)*uint32(w) + uint32(start)*uint32(Full-w)) >> 8)
}

// Q7 is a signed coefficient with seven fractional bits.
type Q7 int8

// ToQ7 quantizes c to the nearest Q7 coefficient, saturating at the ends of
// the range.
func ToQ7(c float64) Q7 {
	v := math.Round(c * 128)
	switch {
	case v >= 127:
		return 127
	case v <= -128:
		return -128
	}
	return Q7(v)
}

// Mul returns the full product c*x, which keeps seven fractional bits.
func (c Q7) Mul(x int16) int32 {
	return int32(c) * int32(x)
}

// Reduce turns a sum of Q7 products into a sample. The sum is divided by 128
// rounding down and saturated to the int16 range. The fractional bits that
// are dropped are kept in *residue and added to the next sum, so feeding a
// recurrence a constant input settles on its exact fixed point instead of
// stalling short of it.
func Reduce(acc int32, residue *int32) int16 {
	acc += *residue
	out := acc >> 7
	switch {
	case out > math.MaxInt16:
		*residue = 0
		return math.MaxInt16
	case out < math.MinInt16:
		*residue = 0
		return math.MinInt16
	}
	*residue = acc - out<<7
	return int16(out)
}
