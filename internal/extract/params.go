// Package extract implements the four-pass scan that turns a case's arterial
// pressure track into labeled training segments: hypotensive event detection,
// clean-window detection, and positive/negative segment generation.
package extract

// Params carries the detection thresholds and geometry for one extraction
// run. All durations are in seconds unless the field name says otherwise.
type Params struct {
	// OnsetThresholdMmHg governs both the start and the end of a hypotensive
	// event: the track is live once a 1-minute window means at or above it,
	// and an event runs while windows mean below it.
	OnsetThresholdMmHg float64

	// CleanThresholdMmHg is the sustained mean required of a clean window.
	CleanThresholdMmHg float64

	// EventWindowSeconds is the trailing window for event detection.
	EventWindowSeconds int

	// CleanWindowSeconds is the fixed clean-window length.
	CleanWindowSeconds int

	// StrideSeconds is how far the clean-window cursor advances after a
	// candidate fails the mean test.
	StrideSeconds int

	// SegmentSeconds is the length of every emitted segment.
	SegmentSeconds int

	// LeadTimesMinutes are the lead times at which a positive segment is
	// sampled ahead of each event onset.
	LeadTimesMinutes []int

	// MinEventGapSeconds drops events that begin closer than this to the end
	// of the previous event. Zero keeps every detected event, matching the
	// historical behavior of the upstream preprocessing.
	MinEventGapSeconds int
}

// DefaultParams returns the production thresholds: 65/75 mmHg, 60 s event
// windows, 1800 s clean windows, 10 s stride, lead times 3/5/10/15 minutes.
func DefaultParams() Params {
	return Params{
		OnsetThresholdMmHg: 65,
		CleanThresholdMmHg: 75,
		EventWindowSeconds: 60,
		CleanWindowSeconds: 1800,
		StrideSeconds:      10,
		SegmentSeconds:     60,
		LeadTimesMinutes:   []int{3, 5, 10, 15},
		MinEventGapSeconds: 0,
	}
}
