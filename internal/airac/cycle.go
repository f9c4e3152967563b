// Package airac computes AIRAC (Aeronautical Information Regulation And
// Control) cycles from calendar dates.
//
// AIRAC cycles are fixed 28-day periods published by ICAO. Every cycle starts
// on a Thursday and is identified by a four character code YYNN, where YY is
// the two-digit year of the effective date and NN is the 1-based ordinal of the
// cycle among the cycles that start in that year. A year holds 13 cycles, or 14
// when the first cycle starts early enough in January (2020 is one such year).
package airac

import (
	"errors"
	"time"
)

// Cycle constants
const (
	// CycleLength is the number of days in every AIRAC cycle.
	CycleLength = 28

	// DateLayout is the calendar date format used for all emitted dates.
	DateLayout = "2006-01-02"
)

// Epoch is the effective date of cycle 9801, the first cycle of 1998.
// Every cycle start is a whole multiple of CycleLength days from here.
var Epoch = time.Date(1998, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	// ErrOutOfRange is returned when no cycle can be resolved for a date.
	ErrOutOfRange = errors.New("date outside supported AIRAC range")

	// ErrInvalidIdentifier is returned for malformed or nonexistent cycle identifiers.
	ErrInvalidIdentifier = errors.New("invalid AIRAC identifier")
)

// Cycle is a single AIRAC cycle.
// EffectiveStart and EffectiveEnd are inclusive calendar dates at midnight UTC.
type Cycle struct {
	Identifier     string
	EffectiveStart time.Time
	EffectiveEnd   time.Time
}

// NextStart returns the first day after the cycle, which is also the
// effective date of the following cycle.
func (c Cycle) NextStart() time.Time {
	return c.EffectiveEnd.AddDate(0, 0, 1)
}

// Contains reports whether the calendar date falls inside the cycle.
// Only the year, month and day of date are considered.
func (c Cycle) Contains(date time.Time) bool {
	d := calendarDate(date)
	return !d.Before(c.EffectiveStart) && !d.After(c.EffectiveEnd)
}

// Year returns the four-digit year the cycle became effective in.
func (c Cycle) Year() int {
	return c.EffectiveStart.Year()
}

// Serial returns the ordinal of the cycle within its year (1-14).
func (c Cycle) Serial() int {
	first := firstStartOfYear(c.Year())
	return daysBetween(first, c.EffectiveStart)/CycleLength + 1
}

// Next returns the cycle that follows c.
func (c Cycle) Next() (Cycle, error) {
	return FromDate(c.NextStart())
}

// Previous returns the cycle that precedes c.
func (c Cycle) Previous() (Cycle, error) {
	return FromDate(c.EffectiveStart.AddDate(0, 0, -1))
}

// String returns the cycle identifier.
func (c Cycle) String() string {
	return c.Identifier
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// calendarDate strips the clock from t, keeping the calendar date as seen in
// t's own location, and returns it at midnight UTC.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from a to b. Both must be midnight UTC.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
