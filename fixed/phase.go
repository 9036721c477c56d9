// Package fixed holds the integer arithmetic shared by the synth engine: a
// 16.16 phase accumulator and the 8-bit multiply primitives used for gain,
// interpolation and filter coefficients.
package fixed

// Phase is an unsigned 16.16 fixed-point position inside a lookup table.
// The upper 16 bits index the table, the lower 16 bits carry the fraction.
type Phase uint32

// Int returns the integer part, used as the table index.
func (p Phase) Int() uint16 {
	return uint16(p >> 16)
}

// Step advances the phase by inc and folds the integer part back below n.
// It reports whether the phase wrapped around the end of the table.
func (p *Phase) Step(inc uint32, n uint16) bool {
	if p == nil || n == 0 {
		return false
	}
	next := uint64(*p) + uint64(inc)
	i := next >> 16
	if i < uint64(n) {
		*p = Phase(next)
		return false
	}
	*p = Phase((i%uint64(n))<<16 | next&0xffff)
	return true
}

// Reset moves the phase back to the start of the table.
func (p *Phase) Reset() {
	if p != nil {
		*p = 0
	}
}
