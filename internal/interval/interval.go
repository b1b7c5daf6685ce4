// Package interval provides half-open time intervals measured in whole
// seconds from the start of a case recording.
package interval

import "fmt"

// Interval is a half-open span [Start, End) in seconds. Start must be
// strictly less than End for the interval to be well formed.
type Interval struct {
	Start int
	End   int
}

// New returns the interval [start, end).
func New(start, end int) Interval {
	return Interval{Start: start, End: end}
}

// Length returns the number of seconds covered by the interval.
func (iv Interval) Length() int {
	return iv.End - iv.Start
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d)", iv.Start, iv.End)
}

// Overlaps reports whether two half-open intervals intersect. The test
// covers three cases: a starts inside b, a ends inside b, or a strictly
// contains b. The result is the same regardless of argument order.
func Overlaps(a, b Interval) bool {
	switch {
	case a.Start >= b.Start && a.Start < b.End:
		return true
	case a.End > b.Start && a.End <= b.End:
		return true
	case a.Start < b.Start && a.End > b.End:
		return true
	}
	return false
}
