package extract

import (
	"github.com/hemodyn-data/ioh.report/internal/interval"
	"github.com/hemodyn-data/ioh.report/internal/waveform"
)

// DetectEvents runs the first forward pass over the arterial track: it finds
// the second at which the track goes live (first 1-minute window meaning at
// or above the onset threshold) and then every maximal interval of sustained
// low mean pressure after that point.
//
// Events come back ordered and non-overlapping, as half-open intervals whose
// End is one past the last hypotensive second. A trailing event that never
// recovers before the track ends is discarded. A track that never goes live
// yields no events and a start index of 0 by convention.
func DetectEvents(abp *waveform.Track, p Params) (events []interval.Interval, trackStartIndex int) {
	total := abp.DurationSeconds()
	win := p.EventWindowSeconds

	started := false
	trackStartIndex = 0

	i := 0
	for i < total-win {
		mean := abp.MeanBetween(i, i+win)

		if !started {
			// roll forward until the leads are connected and tracking
			if mean >= p.OnsetThresholdMmHg {
				started = true
				trackStartIndex = i
			}
			i++
			continue
		}

		if !(mean < p.OnsetThresholdMmHg) {
			// NaN window means total signal gap: threshold not met, keep rolling
			i++
			continue
		}

		// an event opened at i; seek the first later second whose trailing
		// window has recovered
		start := i
		end := -1
		for j := i + win; j < total; j++ {
			if abp.MeanBetween(j-win, j) >= p.OnsetThresholdMmHg {
				end = j // half-open: j-1 is the last hypotensive second
				break
			}
		}
		if end < 0 {
			// never recovered before track end: abandon and stop the scan
			break
		}

		ev := interval.New(start, end)
		if p.MinEventGapSeconds > 0 && len(events) > 0 &&
			ev.Start-events[len(events)-1].End < p.MinEventGapSeconds {
			// too close to the previous episode to be an independent event
			i = end
			continue
		}

		events = append(events, ev)
		i = end
	}

	return events, trackStartIndex
}
