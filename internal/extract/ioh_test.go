package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hemodyn-data/ioh.report/internal/interval"
	"github.com/hemodyn-data/ioh.report/internal/testutil"
)

// The detector works on 1-minute window means, so a dip just under the
// threshold produces an event with exact boundaries: windows straddling the
// edges still mean above 65 while windows fully inside the dip do not.
func TestDetectEventsSingleDip(t *testing.T) {
	abp := testutil.Steps("ART", 10,
		testutil.Span{Seconds: 300, Value: 70},
		testutil.Span{Seconds: 120, Value: 64.95},
		testutil.Span{Seconds: 3180, Value: 70},
	)

	events, trackStart := DetectEvents(abp, DefaultParams())

	if trackStart != 0 {
		t.Errorf("trackStartIndex = %d, want 0", trackStart)
	}
	want := []interval.Interval{interval.New(300, 421)}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if got := events[0].Length(); got < 60 {
		t.Errorf("event length = %d, want >= 60", got)
	}
}

// A deep dip smears the detected boundaries outward: windows that only
// partially cover the dip already mean below threshold.
func TestDetectEventsDeepDipSmearsBoundaries(t *testing.T) {
	abp := testutil.Steps("ART", 10,
		testutil.Span{Seconds: 300, Value: 70},
		testutil.Span{Seconds: 120, Value: 50},
		testutil.Span{Seconds: 3180, Value: 70},
	)

	events, trackStart := DetectEvents(abp, DefaultParams())

	if trackStart != 0 {
		t.Errorf("trackStartIndex = %d, want 0", trackStart)
	}
	want := []interval.Interval{interval.New(256, 465)}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectEventsNeverLive(t *testing.T) {
	abp := testutil.Flat("ART", 10, 600, 50)

	events, trackStart := DetectEvents(abp, DefaultParams())

	if len(events) != 0 {
		t.Errorf("events = %v, want none", events)
	}
	if trackStart != 0 {
		t.Errorf("trackStartIndex = %d, want 0 by convention", trackStart)
	}
}

func TestDetectEventsLateLiveStart(t *testing.T) {
	// low pressure before the leads settle, then sustained clean signal
	abp := testutil.Steps("ART", 10,
		testutil.Span{Seconds: 60, Value: 50},
		testutil.Span{Seconds: 1000, Value: 80},
	)

	events, trackStart := DetectEvents(abp, DefaultParams())

	if len(events) != 0 {
		t.Errorf("events = %v, want none", events)
	}
	// live at the first second whose window means >= 65: 30 low + 30 high
	if trackStart != 30 {
		t.Errorf("trackStartIndex = %d, want 30", trackStart)
	}
}

func TestDetectEventsUnboundedEventDiscarded(t *testing.T) {
	// pressure collapses and never recovers before track end
	abp := testutil.Steps("ART", 10,
		testutil.Span{Seconds: 300, Value: 70},
		testutil.Span{Seconds: 200, Value: 50},
	)

	events, trackStart := DetectEvents(abp, DefaultParams())

	if len(events) != 0 {
		t.Errorf("trailing unbounded event must be discarded, got %v", events)
	}
	if trackStart != 0 {
		t.Errorf("trackStartIndex = %d, want 0", trackStart)
	}
}

func TestDetectEventsAllNaNGap(t *testing.T) {
	// a total signal gap means the threshold is never met: no event opens
	abp := testutil.Steps("ART", 10,
		testutil.Span{Seconds: 300, Value: 70},
		testutil.Gap(120),
		testutil.Span{Seconds: 300, Value: 70},
	)

	events, _ := DetectEvents(abp, DefaultParams())
	if len(events) != 0 {
		t.Errorf("NaN gap must not open an event, got %v", events)
	}
}

func TestDetectEventsMinimumGap(t *testing.T) {
	abp := testutil.Steps("ART", 10,
		testutil.Span{Seconds: 100, Value: 70},
		testutil.Span{Seconds: 60, Value: 60},
		testutil.Span{Seconds: 100, Value: 70},
		testutil.Span{Seconds: 60, Value: 60},
		testutil.Span{Seconds: 280, Value: 70},
	)

	// default: both episodes detected
	events, _ := DetectEvents(abp, DefaultParams())
	want := []interval.Interval{interval.New(71, 190), interval.New(231, 350)}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}

	// with a minimum gap the second episode is too close and is dropped
	p := DefaultParams()
	p.MinEventGapSeconds = 60
	events, _ = DetectEvents(abp, p)
	want = []interval.Interval{interval.New(71, 190)}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events with min gap mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectEventsNonOverlapping(t *testing.T) {
	abp := testutil.Steps("ART", 10,
		testutil.Span{Seconds: 200, Value: 80},
		testutil.Span{Seconds: 90, Value: 55},
		testutil.Span{Seconds: 400, Value: 80},
		testutil.Span{Seconds: 120, Value: 58},
		testutil.Span{Seconds: 600, Value: 80},
	)

	events, _ := DetectEvents(abp, DefaultParams())
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for i, ev := range events {
		if ev.Length() < 60 {
			t.Errorf("event %d length = %d, want >= 60", i, ev.Length())
		}
		if i > 0 && interval.Overlaps(ev, events[i-1]) {
			t.Errorf("events %v and %v overlap", events[i-1], ev)
		}
		if i > 0 && ev.Start < events[i-1].End {
			t.Errorf("events out of order: %v before %v", events[i-1], ev)
		}
	}
}
