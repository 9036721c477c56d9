package audio

import (
	"fmt"
	"strings"

	"github.com/mrdg/dbsynth/fixed"
)

type FilterType uint8

const (
	FilterOff FilterType = iota
	LowPass
	HighPass
	numFilterTypes
)

var filterTypeNames = [numFilterTypes]string{"off", "lowpass", "highpass"}

func (t FilterType) Valid() bool { return t < numFilterTypes }

func (t FilterType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return filterTypeNames[t]
}

func ParseFilterType(s string) (FilterType, error) {
	switch strings.ToLower(s) {
	case "lpf", "lp":
		return LowPass, nil
	case "hpf", "hp":
		return HighPass, nil
	}
	for i, name := range filterTypeNames {
		if strings.EqualFold(s, name) {
			return FilterType(i), nil
		}
	}
	return 0, fmt.Errorf("not a valid filter type: %v", s)
}

// Filter is a first order low or high pass filter with 8-bit coefficients:
//
//	y[n] = (a1*y[n-1] + b0*x[n] + b1*x[n-1]) / 128
//
// Coefficients are bilinear transforms of a one-pole analog prototype. The
// bits dropped by the division are carried into the next sample.
type Filter struct {
	ready   bool
	typ     FilterType
	cutoff  uint8
	prevOut int16
	prevIn  int16
	residue int32
}

func NewFilter() *Filter {
	return &Filter{ready: true, cutoff: maxParam - 1}
}

// Sample filters one input sample. A disabled filter returns its input and
// leaves its memory untouched, so re-enabling it resumes from the last
// filtered samples.
func (f *Filter) Sample(in int16) int16 {
	if f == nil || !f.ready {
		return 0
	}
	var c *coefficients
	switch f.typ {
	case LowPass:
		c = &lowPassCoefs[f.cutoff]
	case HighPass:
		c = &highPassCoefs[f.cutoff]
	default:
		return in
	}
	acc := c.a1.Mul(f.prevOut) + c.b0.Mul(in) + c.b1.Mul(f.prevIn)
	out := fixed.Reduce(acc, &f.residue)
	f.prevOut, f.prevIn = out, in
	return out
}

func (f *Filter) SetType(t FilterType) bool {
	if f == nil || !f.ready || !t.Valid() || f.typ == t {
		return false
	}
	f.typ = t
	return true
}

func (f *Filter) SetCutoff(c uint8) bool {
	if f == nil || !f.ready || c >= maxParam || f.cutoff == c {
		return false
	}
	f.cutoff = c
	return true
}

func (f *Filter) Type() FilterType {
	if f == nil {
		return FilterOff
	}
	return f.typ
}

func (f *Filter) Cutoff() uint8 {
	if f == nil {
		return 0
	}
	return f.cutoff
}
