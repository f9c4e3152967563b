package airac

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LastSupportedYear is the last year whose cycles can be resolved.
//
// Identifiers only carry a two-digit year. Years 98 and 99 map to 1998 and
// 1999; every other prefix maps to 20YY. Cycles starting in 2098 or later
// would collide with the 1998 identifiers, so they are rejected.
const LastSupportedYear = 2097

// upperBound is the effective date of the first cycle that is not supported.
var upperBound = firstStartOfYear(LastSupportedYear + 1)

// Calculator resolves cycles with the standard 28-day AIRAC arithmetic.
// The zero value is ready to use.
type Calculator struct{}

// CycleAt returns the cycle containing date.
func (Calculator) CycleAt(date time.Time) (Cycle, error) {
	return FromDate(date)
}

// FromDate returns the AIRAC cycle containing the calendar date of t.
//
// Examples:
//   - 2024-01-25 -> 2401 (2024-01-25 to 2024-02-21)
//   - 2024-01-24 -> 2313 (2023-12-28 to 2024-01-24)
//   - 2020-12-31 -> 2014 (2020-12-31 to 2021-01-27)
func FromDate(t time.Time) (Cycle, error) {
	date := calendarDate(t)

	days := daysBetween(Epoch, date)
	if days < 0 || !date.Before(upperBound) {
		return Cycle{}, fmt.Errorf("%w: %s", ErrOutOfRange, FormatDate(date))
	}

	start := Epoch.AddDate(0, 0, (days/CycleLength)*CycleLength)
	return newCycle(start), nil
}

// FromIdentifier returns the cycle with the given YYNN identifier.
func FromIdentifier(id string) (Cycle, error) {
	if len(id) != 4 || strings.Trim(id, "0123456789") != "" {
		return Cycle{}, fmt.Errorf("%w: %q must have 4 digits", ErrInvalidIdentifier, id)
	}

	yy, _ := strconv.Atoi(id[:2])
	nn, _ := strconv.Atoi(id[2:])
	if nn < 1 {
		return Cycle{}, fmt.Errorf("%w: %q has an invalid ordinal", ErrInvalidIdentifier, id)
	}

	year := 2000 + yy
	if yy >= 98 {
		year = 1900 + yy
	}

	if n := CyclesInYear(year); nn > n {
		return Cycle{}, fmt.Errorf("%w: %d has only %d cycles", ErrInvalidIdentifier, year, n)
	}

	start := firstStartOfYear(year).AddDate(0, 0, (nn-1)*CycleLength)
	return newCycle(start), nil
}

// CyclesInYear returns how many cycles become effective in year (13 or 14).
func CyclesInYear(year int) int {
	next := firstStartOfYear(year + 1)
	return daysBetween(firstStartOfYear(year), next) / CycleLength
}

// Range returns every cycle overlapping the inclusive date range [from, to],
// in chronological order.
func Range(from, to time.Time) ([]Cycle, error) {
	from, to = calendarDate(from), calendarDate(to)
	if from.After(to) {
		return nil, fmt.Errorf("range start %s is after end %s", FormatDate(from), FormatDate(to))
	}

	c, err := FromDate(from)
	if err != nil {
		return nil, err
	}

	cycles := []Cycle{c}
	for c.EffectiveEnd.Before(to) {
		if c, err = c.Next(); err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, nil
}

// newCycle builds a cycle from its effective date.
func newCycle(start time.Time) Cycle {
	c := Cycle{
		EffectiveStart: start,
		EffectiveEnd:   start.AddDate(0, 0, CycleLength-1),
	}
	c.Identifier = fmt.Sprintf("%02d%02d", c.Year()%100, c.Serial())
	return c
}

// firstStartOfYear returns the effective date of the first cycle in year.
func firstStartOfYear(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := daysBetween(Epoch, jan1)

	// Round up to the next cycle boundary on or after January 1.
	n := days / CycleLength
	if days%CycleLength != 0 {
		n++
	}
	return Epoch.AddDate(0, 0, n*CycleLength)
}
