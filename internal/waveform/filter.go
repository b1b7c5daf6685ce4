package waveform

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// BandPass applies a second-order Butterworth band-pass between lowHz and
// highHz to the samples, realized as a high-pass biquad cascaded with a
// low-pass biquad. NaN samples are zeroed before filtering, matching the
// monitor-gap handling of the upstream recordings.
func BandPass(samples []float64, lowHz, highHz float64, rateHz int) []float64 {
	out := make([]float64, len(samples))
	for i, v := range samples {
		if math.IsNaN(v) {
			out[i] = 0
		} else {
			out[i] = v
		}
	}

	hp := newHighPass(lowHz, float64(rateHz))
	lp := newLowPass(highHz, float64(rateHz))
	hp.apply(out)
	lp.apply(out)
	return out
}

// Normalize z-scores the samples in place on a copy: (x - mean) / std, with
// mean and std computed over the finite samples only. NaN samples stay NaN.
// A flat signal (zero deviation) is returned unchanged.
func Normalize(samples []float64) []float64 {
	finite := make([]float64, 0, len(samples))
	for _, v := range samples {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	out := make([]float64, len(samples))
	if len(finite) == 0 {
		copy(out, samples)
		return out
	}

	mean, std := stat.MeanStdDev(finite, nil)
	if std == 0 || math.IsNaN(std) {
		copy(out, samples)
		return out
	}
	for i, v := range samples {
		out[i] = (v - mean) / std
	}
	return out
}

// biquad is a single second-order IIR section in direct form II transposed.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// newLowPass returns a Butterworth low-pass section (Q = 1/sqrt2) with the
// given cutoff, per the Audio EQ Cookbook formulation.
func newLowPass(cutoffHz, rateHz float64) *biquad {
	w0 := 2 * math.Pi * cutoffHz / rateHz
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	alpha := sinw / math.Sqrt2

	a0 := 1 + alpha
	return &biquad{
		b0: (1 - cosw) / 2 / a0,
		b1: (1 - cosw) / a0,
		b2: (1 - cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

// newHighPass returns the complementary Butterworth high-pass section.
func newHighPass(cutoffHz, rateHz float64) *biquad {
	w0 := 2 * math.Pi * cutoffHz / rateHz
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	alpha := sinw / math.Sqrt2

	a0 := 1 + alpha
	return &biquad{
		b0: (1 + cosw) / 2 / a0,
		b1: -(1 + cosw) / a0,
		b2: (1 + cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

// apply filters the samples in place.
func (f *biquad) apply(samples []float64) {
	var z1, z2 float64
	for i, x := range samples {
		y := f.b0*x + z1
		z1 = f.b1*x + z2 - f.a1*y
		z2 = f.b2*x - f.a2*y
		samples[i] = y
	}
}
