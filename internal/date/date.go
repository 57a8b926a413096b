// Package date provides a calendar day without time of day or zone, and closed
// ranges of days.
package date

import (
	"fmt"
	"time"
)

// Format is the ISO-8601 layout used to write dates.
const Format = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar day with no time-of-day or time zone.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date, so New(2025, 1, 32) is 2025-02-01.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// FromTime returns the calendar day of t in t's location.
func FromTime(t time.Time) Date { return New(t.Date()) }

// Today returns the current date in the local time zone.
func Today() Date { return FromTime(time.Now()) }

// time is the canonical instant for the day (midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.time() }

func (d Date) Year() int          { return d.y }
func (d Date) Month() time.Month  { return d.m }
func (d Date) Day() int           { return d.d }
func (d Date) IsZero() bool       { return d == Date{} }
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }
func (d Date) After(x Date) bool  { return d.time().After(x.time()) }

// Add returns the date i days later (earlier when i is negative).
func (d Date) Add(i int) Date { return New(d.y, d.m, d.d+i) }

// Sub returns the number of days from x to d.
func (d Date) Sub(x Date) int {
	// Unix seconds rather than time.Duration, which saturates past ~292 years.
	return int((d.time().Unix() - x.time().Unix()) / secondsPerDay)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.time().Format(Format) }

// Parse reads a date written in layout. Any time-of-day component is dropped.
func Parse(layout, s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", s, layout, err)
	}
	return FromTime(t), nil
}

// MustParse is like Parse with Format, and panics on error. For tests and constants.
func MustParse(s string) Date {
	d, err := Parse(Format, s)
	if err != nil {
		panic(err.Error())
	}
	return d
}
