package extract

import (
	"github.com/hemodyn-data/ioh.report/internal/interval"
	"github.com/hemodyn-data/ioh.report/internal/waveform"
)

// DetectCleanWindows runs the second forward pass: starting from the live
// start index it finds non-overlapping windows of CleanWindowSeconds whose
// mean pressure holds at or above the clean threshold and which are disjoint
// from every detected event.
//
// A candidate that intersects one or more events is skipped to one past the
// latest end among the overlapping events. A candidate that fails the mean
// test advances by the stride. The overlap check always uses the current
// candidate's own bounds.
func DetectCleanWindows(abp *waveform.Track, events []interval.Interval, trackStartIndex int, p Params) []interval.Interval {
	total := abp.DurationSeconds()
	length := p.CleanWindowSeconds

	var windows []interval.Interval
	i := trackStartIndex
	for i < total-length {
		cand := interval.New(i, i+length)

		if end, overlap := latestOverlappingEnd(cand, events); overlap {
			i = end
			continue
		}

		if abp.MeanBetween(cand.Start, cand.End) >= p.CleanThresholdMmHg {
			windows = append(windows, cand)
			i = cand.End + 1
			continue
		}

		i += p.StrideSeconds
	}
	return windows
}

// latestOverlappingEnd returns the latest End among events overlapping the
// candidate, and whether any overlap exists.
func latestOverlappingEnd(cand interval.Interval, events []interval.Interval) (int, bool) {
	latest := 0
	found := false
	for _, ev := range events {
		if interval.Overlaps(cand, ev) {
			found = true
			if ev.End > latest {
				latest = ev.End
			}
		}
	}
	return latest, found
}
