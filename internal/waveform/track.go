// Package waveform provides the in-memory representation of a single
// physiological channel: an immutable sample array with a fixed sample rate,
// NaN-tolerant windowed statistics, and non-mutating crop views.
package waveform

import "math"

// Track is one channel of a case recording. Samples may contain NaN where the
// monitor produced no value. Tracks are treated as immutable once built;
// Crop returns views sharing the backing array rather than copies.
type Track struct {
	Name    string
	RateHz  int
	Samples []float64
}

// NewTrack wraps samples recorded at rateHz.
func NewTrack(name string, rateHz int, samples []float64) *Track {
	return &Track{Name: name, RateHz: rateHz, Samples: samples}
}

// Empty reports whether the track carries no samples at all.
func (t *Track) Empty() bool {
	return t == nil || len(t.Samples) == 0
}

// DurationSeconds returns the track length in whole seconds.
func (t *Track) DurationSeconds() int {
	if t == nil || t.RateHz <= 0 {
		return 0
	}
	return len(t.Samples) / t.RateHz
}

// MeanBetween returns the mean of the samples in [startSec, endSec), skipping
// NaN values. A window with no finite samples yields NaN, which compares
// false against any threshold.
func (t *Track) MeanBetween(startSec, endSec int) float64 {
	lo := startSec * t.RateHz
	hi := endSec * t.RateHz
	if lo < 0 {
		lo = 0
	}
	if hi > len(t.Samples) {
		hi = len(t.Samples)
	}
	if lo >= hi {
		return math.NaN()
	}

	var sum float64
	var n int
	for _, v := range t.Samples[lo:hi] {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Crop returns a view of the track covering [startSec, endSec). The view
// shares the backing array with the parent; neither is mutated. Bounds are
// clamped to the track length.
func (t *Track) Crop(startSec, endSec int) *Track {
	lo := startSec * t.RateHz
	hi := endSec * t.RateHz
	if lo < 0 {
		lo = 0
	}
	if hi > len(t.Samples) {
		hi = len(t.Samples)
	}
	if lo > hi {
		lo = hi
	}
	return &Track{Name: t.Name, RateHz: t.RateHz, Samples: t.Samples[lo:hi]}
}
