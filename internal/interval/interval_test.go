package interval

import "testing"

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", New(10, 20), New(10, 20), true},
		{"a starts inside b", New(15, 30), New(10, 20), true},
		{"a ends inside b", New(0, 15), New(10, 20), true},
		{"a contains b", New(0, 100), New(10, 20), true},
		{"b contains a", New(10, 20), New(0, 100), true},
		{"disjoint before", New(0, 5), New(10, 20), false},
		{"disjoint after", New(30, 40), New(10, 20), false},
		{"touching at end", New(0, 10), New(10, 20), false},
		{"touching at start", New(20, 30), New(10, 20), false},
		{"single second inside", New(15, 16), New(10, 20), true},
		{"single second at boundary", New(19, 20), New(10, 20), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// The predicate must not care about argument order.
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestLength(t *testing.T) {
	if got := New(300, 420).Length(); got != 120 {
		t.Errorf("Length() = %d, want 120", got)
	}
}
