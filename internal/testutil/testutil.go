// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common assertion helpers and synthetic waveform
// builders used by the detector, pipeline and store tests.
package testutil

import (
	"math"
	"testing"

	"github.com/hemodyn-data/ioh.report/internal/waveform"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Span is one constant-valued stretch of a synthetic track. Use NaN as the
// value to model a monitoring gap.
type Span struct {
	Seconds int
	Value   float64
}

// Gap returns a Span of NaN samples.
func Gap(seconds int) Span {
	return Span{Seconds: seconds, Value: math.NaN()}
}

// Steps builds a track at rateHz from consecutive constant spans.
func Steps(name string, rateHz int, spans ...Span) *waveform.Track {
	var total int
	for _, s := range spans {
		total += s.Seconds
	}
	samples := make([]float64, 0, total*rateHz)
	for _, s := range spans {
		for i := 0; i < s.Seconds*rateHz; i++ {
			samples = append(samples, s.Value)
		}
	}
	return waveform.NewTrack(name, rateHz, samples)
}

// Flat builds a constant-valued track of the given duration.
func Flat(name string, rateHz, seconds int, value float64) *waveform.Track {
	return Steps(name, rateHz, Span{Seconds: seconds, Value: value})
}
