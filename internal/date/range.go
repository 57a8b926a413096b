package date

import "fmt"

// Range is a closed interval of days.
type Range struct{ From, To Date }

// NewRange creates a range, swapping the bounds if from is after to.
func NewRange(from, to Date) Range {
	if from.After(to) {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// Contains reports whether d falls in the range, boundaries included.
func (r Range) Contains(d Date) bool { return !d.Before(r.From) && !d.After(r.To) }

// Days returns the width of the range in days. Zero for a single-day range.
func (r Range) Days() int { return r.To.Sub(r.From) }

func (r Range) String() string { return fmt.Sprintf("%s to %s", r.From, r.To) }
