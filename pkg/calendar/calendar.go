// Package calendar holds the date arithmetic shared by the amortization and
// depreciation components. All functions are pure and work on UTC dates at
// day granularity.
package calendar

import (
	"fmt"
	"time"
)

// Unit is the length of one schedule period.
type Unit string

const (
	Monthly   Unit = "MONTHLY"
	Quarterly Unit = "QUARTERLY"
	Yearly    Unit = "YEARLY"
)

// MonthsPerPeriod returns how many calendar months one period spans.
// Unknown units return 0.
func (u Unit) MonthsPerPeriod() int {
	switch u {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case Yearly:
		return 12
	default:
		return 0
	}
}

// IsValid reports whether the unit is one of the supported period lengths.
func (u Unit) IsValid() bool {
	return u.MonthsPerPeriod() > 0
}

// Date builds a UTC date at midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize drops the clock part of t and moves it to UTC.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// AddPeriods moves date forward (or backward for negative count) by count periods of unit.
// Month overflow follows time.AddDate, so Jan 31 + 1 month is Mar 3 (Mar 2 in leap years).
func AddPeriods(date time.Time, count int, unit Unit) time.Time {
	return Normalize(date).AddDate(0, count*unit.MonthsPerPeriod(), 0)
}

// IsDue reports whether an entry due on dueDate is due as of asOf (dueDate <= asOf).
func IsDue(dueDate, asOf time.Time) bool {
	return !Normalize(dueDate).After(Normalize(asOf))
}

// FiscalYearBounds returns the first and last day of fiscal year `year`.
//
// Fiscal year Y starts on day 1 of startMonth in calendar year Y and ends on
// the day before the same date in Y+1. With startMonth = 1 the fiscal year is
// the calendar year.
func FiscalYearBounds(year int, startMonth int) (time.Time, time.Time, error) {
	if startMonth < 1 || startMonth > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("fiscal year start month must be between 1 and 12, got %d", startMonth)
	}
	start := Date(year, time.Month(startMonth), 1)
	end := start.AddDate(1, 0, -1)
	return start, end, nil
}

// FiscalYearOf returns the fiscal year that contains date.
func FiscalYearOf(date time.Time, startMonth int) int {
	date = Normalize(date)
	if int(date.Month()) < startMonth {
		return date.Year() - 1
	}
	return date.Year()
}

// MonthsInclusive counts whole calendar months from the month of `from` to the
// month of `to`, both included. It returns 0 when to is in an earlier month.
func MonthsInclusive(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month()) + 1
	if months < 0 {
		return 0
	}
	return months
}

// Between reports whether date lies within [from, to].
func Between(date, from, to time.Time) bool {
	d := Normalize(date)
	return !d.Before(Normalize(from)) && !d.After(Normalize(to))
}
