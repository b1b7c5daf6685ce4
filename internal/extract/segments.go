package extract

import (
	"github.com/hemodyn-data/ioh.report/internal/interval"
	"github.com/hemodyn-data/ioh.report/internal/waveform"
)

// Positive is a 1-minute segment sampled LeadMinutes ahead of a hypotensive
// event's onset. Bounds are half-open seconds.
type Positive struct {
	Start       int
	End         int
	LeadMinutes int
}

// Negative is a 1-minute segment sampled from inside a clean window.
type Negative struct {
	Start int
	End   int
}

// GeneratePositives runs the third pass: for every event and every configured
// lead time it derives the candidate predictive segment and applies the
// rejection rules. A candidate is dropped when it would begin before the
// recording, before the track went live, or inside the immediately previous
// event (contaminated lead-in).
func GeneratePositives(events []interval.Interval, trackStartIndex int, p Params) []Positive {
	var out []Positive
	for k, ev := range events {
		var prev *interval.Interval
		if k > 0 {
			prev = &events[k-1]
		}

		for _, lead := range p.LeadTimesMinutes {
			start := ev.Start - lead*60
			end := start + p.SegmentSeconds

			if start < 0 || start < trackStartIndex {
				continue
			}
			if prev != nil && interval.Overlaps(interval.New(start, end), *prev) {
				continue
			}

			out = append(out, Positive{Start: start, End: end, LeadMinutes: lead})
		}
	}
	return out
}

// Clean-window sampling offsets: the 11th, 16th and 21st minute of the
// 30-minute window.
var negativeOffsets = [3]int{600, 900, 1200}

// GenerateNegatives runs the fourth pass: three fixed-offset segments per
// clean window. No threshold re-check is needed; the window's construction
// already guarantees sustained high pressure and event disjointness.
func GenerateNegatives(windows []interval.Interval, p Params) []Negative {
	var out []Negative
	for _, w := range windows {
		for _, off := range negativeOffsets {
			out = append(out, Negative{Start: w.Start + off, End: w.Start + off + p.SegmentSeconds})
		}
	}
	return out
}

// Result bundles everything the four passes derive for one case. It lives
// only for the duration of that case's processing.
type Result struct {
	TrackStartIndex int
	Events          []interval.Interval
	CleanWindows    []interval.Interval
	Positives       []Positive
	Negatives       []Negative
}

// Run executes all four passes over an arterial track.
func Run(abp *waveform.Track, p Params) Result {
	events, trackStart := DetectEvents(abp, p)
	windows := DetectCleanWindows(abp, events, trackStart, p)
	return Result{
		TrackStartIndex: trackStart,
		Events:          events,
		CleanWindows:    windows,
		Positives:       GeneratePositives(events, trackStart, p),
		Negatives:       GenerateNegatives(windows, p),
	}
}
