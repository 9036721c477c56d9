package audio

import (
	"fmt"
	"math"

	"github.com/mrdg/dbsynth/fixed"
)

const (
	SampleRate = 48000

	// Amplitude is the peak value of oscillator samples and of the engine output.
	Amplitude = 0x1ff

	NumNotes = 128

	waveSamples = 0x200

	// The octave closest to Nyquist uses the sine table.
	wavetableOctaves = (NumNotes+11)/12 - 1

	// EnvelopeAmplitude is the full-scale envelope level.
	EnvelopeAmplitude = 0xff

	envSamples = 0x200

	numTimes   = 128
	numLevels  = 128
	numCutoffs = 128

	minTimeMS = 2
	maxTimeMS = 20000

	minCutoffHz = 20
	maxCutoffHz = 20000

	// Attack curve shape after an AS3310: the segment ends when the
	// exponential toward a 7V asymptote crosses the 5V peak.
	attackAsymptote = 7.0
	attackPeak      = 5.0
)

type wavetable [waveSamples]int16

type curve [envSamples]uint8

type coefficients struct {
	a1, b0, b1 fixed.Q7
}

var (
	noteSteps [NumNotes]uint32

	sineTable      wavetable
	squareTables   [wavetableOctaves]wavetable
	triangleTables [wavetableOctaves]wavetable
	sawTables      [wavetableOctaves]wavetable

	linearCurve       curve
	attackCurve       curve
	decayReleaseCurve curve

	envTimes [numTimes]int // milliseconds
	envSteps [numTimes]uint32

	cutoffFrequencies [numCutoffs]int // Hz
	lowPassCoefs      [numCutoffs]coefficients
	highPassCoefs     [numCutoffs]coefficients
)

func init() {
	initOscillatorTables()
	initEnvelopeTables()
	initFilterTables()
}

func noteFrequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

func initOscillatorTables() {
	for n := range noteSteps {
		noteSteps[n] = uint32(waveSamples / (SampleRate / noteFrequency(n)) * (1 << 16))
	}
	for i := range sineTable {
		sineTable[i] = int16(Amplitude * math.Sin(2*math.Pi*float64(i)/waveSamples))
	}

	const half = waveSamples / 2
	for o := 0; o < wavetableOctaves; o++ {
		top := o*12 + 11
		if top >= NumNotes {
			top = NumNotes - 1
		}
		period := SampleRate / noteFrequency(top)
		b := blit(period)

		var (
			square   = make([]float64, waveSamples)
			triangle = make([]float64, waveSamples)
			saw      = make([]float64, waveSamples)
		)
		var y float64
		for i := range b {
			y += b[i] - b[(i+half)%waveSamples]
			square[i] = y
		}
		mid := midpoint(square)
		y = 0
		for i, v := range square {
			y += v - mid
			triangle[i] = y
		}
		triangle = append(triangle[waveSamples/4:], triangle[:waveSamples/4]...)
		y = 0
		for i := range b {
			y += b[(i+half)%waveSamples] - 1/period
			saw[i] = -y
		}

		squareTables[o] = normalize(square)
		triangleTables[o] = normalize(triangle)
		sawTables[o] = normalize(saw)
	}
}

// blit returns one cycle of a band-limited impulse train holding every
// harmonic below Nyquist for the given period in samples.
func blit(period float64) []float64 {
	m := 2*math.Floor(period/2) + 1
	b := make([]float64, waveSamples)
	for i := range b {
		x := float64(i-waveSamples/2) / waveSamples
		d := math.Sin(math.Pi * x)
		if d == 0 {
			b[i] = 1
			continue
		}
		b[i] = math.Sin(math.Pi*x*m) / (m * d)
	}
	return b
}

func midpoint(v []float64) float64 {
	mn, mx := minMax(v)
	return mn + (mx-mn)/2
}

func minMax(v []float64) (mn, mx float64) {
	mn, mx = v[0], v[0]
	for _, x := range v[1:] {
		mn = math.Min(mn, x)
		mx = math.Max(mx, x)
	}
	return mn, mx
}

// normalize scales v to ±Amplitude and reverses it, so that every table
// starts on its rising half.
func normalize(v []float64) wavetable {
	var t wavetable
	mn, mx := minMax(v)
	for i, x := range v {
		t[len(t)-1-i] = int16(int((x-mn)*2*Amplitude/math.Abs(mx-mn)) - Amplitude)
	}
	return t
}

func initEnvelopeTables() {
	ts := make([]float64, envSamples)
	full := make([]float64, envSamples)
	for i := range ts {
		ts[i] = float64(i) / (envSamples - 1)
		full[i] = 1 - math.Exp(-3*ts[i])
	}
	var attackEnd float64
	for i, v := range full {
		if v/full[envSamples-1] >= attackPeak/attackAsymptote {
			attackEnd = ts[i]
			break
		}
	}
	attackTop := 1 - math.Exp(-3*attackEnd)
	for i, t := range ts {
		linearCurve[i] = uint8(EnvelopeAmplitude * i / (envSamples - 1))
		attackCurve[i] = uint8(EnvelopeAmplitude * (1 - math.Exp(-3*t*attackEnd)) / attackTop)
		decayReleaseCurve[i] = uint8(EnvelopeAmplitude * full[i] / full[envSamples-1])
	}

	// Index 0 is an instantaneous segment; the rest grow exponentially.
	envSteps[0] = envSamples << 16
	for i := 1; i < numTimes; i++ {
		x := math.Exp(6*float64(i-1)/(numTimes-2)) - 1
		ms := minTimeMS + int((maxTimeMS-minTimeMS)*x/(math.Exp(6)-1))
		envTimes[i] = ms
		envSteps[i] = uint32(envSamples * 1000 / (float64(ms) * SampleRate) * (1 << 16))
	}
}

func initFilterTables() {
	for i := range cutoffFrequencies {
		x := math.Exp(3*float64(i)/(numCutoffs-1)) - 1
		f := minCutoffHz + int((maxCutoffHz-minCutoffHz)*x/(math.Exp(3)-1))
		cutoffFrequencies[i] = f

		alpha := 2 * math.Pi * float64(f) / SampleRate
		lowPassCoefs[i] = lowPass(fixed.ToQ7((2 - alpha) / (2 + alpha)))
		highPassCoefs[i] = highPass(fixed.ToQ7((2 - alpha) / (2 + alpha)))
	}
}

// lowPass derives the feed-forward terms from the quantized pole so that
// b0+b1+a1 is exactly 128 and DC passes at unity gain.
func lowPass(a1 fixed.Q7) coefficients {
	s := 128 - int(a1)
	return coefficients{a1: a1, b0: fixed.Q7((s + 1) / 2), b1: fixed.Q7(s / 2)}
}

// highPass puts a zero at DC and sets unity gain at the Nyquist frequency.
func highPass(a1 fixed.Q7) coefficients {
	b := (128 + int(a1) + 1) / 2
	if b > 127 {
		b = 127
	}
	return coefficients{a1: a1, b0: fixed.Q7(b), b1: fixed.Q7(-b)}
}

// TimeDescription formats an envelope time index for display.
func TimeDescription(i uint8) string {
	if int(i) >= numTimes {
		return "?"
	}
	ms := envTimes[i]
	switch {
	case ms == 0:
		return "0ms"
	case ms < 1000:
		return fmt.Sprintf("%dms", ms)
	case ms < 10000:
		return fmt.Sprintf("%.2fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

// LevelDescription formats a sustain level index as a percentage.
func LevelDescription(i uint8) string {
	if int(i) >= numLevels {
		return "?"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(i)/(numLevels-1))
}

// CutoffDescription formats a filter cutoff index as a frequency.
func CutoffDescription(i uint8) string {
	if int(i) >= numCutoffs {
		return "?"
	}
	f := cutoffFrequencies[i]
	if f < 1000 {
		return fmt.Sprintf("%dHz", f)
	}
	return fmt.Sprintf("%.2fkHz", float64(f)/1000)
}

// EnvelopeTime returns the duration in milliseconds of an envelope time index.
func EnvelopeTime(i uint8) int {
	if int(i) >= numTimes {
		return 0
	}
	return envTimes[i]
}

// CutoffFrequency returns the frequency in Hz of a cutoff index.
func CutoffFrequency(i uint8) int {
	if int(i) >= numCutoffs {
		return 0
	}
	return cutoffFrequencies[i]
}
