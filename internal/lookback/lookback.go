// Package lookback turns relative time-span queries such as "6 months" or
// "1 year 2 months" into a date range ending today.
//
// Units are fixed-length: a year is 365 days and a month is 30 days. Ranges drift
// from calendar arithmetic accordingly.
package lookback

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cleared-dev/stmtfilter/internal/date"
)

var (
	// ErrNoMatch means the query names no recognizable span.
	ErrNoMatch = errors.New("no time span found in query")
	// ErrOutOfRange means the total span is too large to represent.
	ErrOutOfRange = errors.New("time span out of range")
)

// Unit is a span unit.
type Unit string

const (
	Year  Unit = "year"
	Month Unit = "month"
	Week  Unit = "week"
	Day   Unit = "day"
)

// Days is the fixed length of the unit.
func (u Unit) Days() int {
	switch u {
	case Year:
		return 365
	case Month:
		return 30
	case Week:
		return 7
	case Day:
		return 1
	}
	return 0
}

// maxDays caps the total offset at one million years.
const maxDays = 365 * 1_000_000

var componentRe = regexp.MustCompile(`(\d+)\s*(year|month|week|day)s?`)

// Component is one "<quantity> <unit>" occurrence in a query.
type Component struct {
	Quantity int
	Unit     Unit
}

func (c Component) String() string {
	if c.Quantity == 1 {
		return fmt.Sprintf("%d %s", c.Quantity, c.Unit)
	}
	return fmt.Sprintf("%d %ss", c.Quantity, c.Unit)
}

// Lookback is a parsed query: components applied additively, in query order.
type Lookback struct {
	Components []Component
	days       int
}

// Parse scans query case-insensitively for every "<integer> <unit>[s]" occurrence.
// Text around the occurrences is ignored, so "last 3 weeks please" parses.
func Parse(query string) (Lookback, error) {
	matches := componentRe.FindAllStringSubmatch(strings.ToLower(query), -1)
	if len(matches) == 0 {
		return Lookback{}, fmt.Errorf("%w: %q (try \"6 months\" or \"1 year 2 months\")", ErrNoMatch, query)
	}

	var lb Lookback
	for _, m := range matches {
		qty, err := strconv.Atoi(m[1])
		if err != nil {
			return Lookback{}, fmt.Errorf("%w: quantity %s", ErrOutOfRange, m[1])
		}
		unit := Unit(m[2])
		if qty > (maxDays-lb.days)/unit.Days() {
			return Lookback{}, fmt.Errorf("%w: %q exceeds %d days", ErrOutOfRange, query, maxDays)
		}
		lb.days += qty * unit.Days()
		lb.Components = append(lb.Components, Component{Quantity: qty, Unit: unit})
	}
	return lb, nil
}

// Days is the total offset in days.
func (lb Lookback) Days() int { return lb.days }

// Range returns [today - Days(), today]. An all-zero query gives a single-day range.
func (lb Lookback) Range(today date.Date) date.Range {
	return date.Range{From: today.Add(-lb.days), To: today}
}

// String renders the normalized query, e.g. "1 year 2 months".
func (lb Lookback) String() string {
	parts := make([]string, len(lb.Components))
	for i, c := range lb.Components {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
