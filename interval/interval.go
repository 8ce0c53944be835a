// Package interval provides calendar-date arithmetic for the staffing engine.
//
// All dates are whole calendar days in UTC. Ranges are inclusive on both
// ends: an allocation from Jan 1 to Jan 31 covers 31 days, and two ranges
// that touch at an endpoint overlap. Every overlap and day-count decision
// in the engine goes through this package so create and update paths can
// never diverge on the math.
package interval

import (
	"time"
)

// =============================================================================
// DATE - A calendar day (no time-of-day, no timezone arithmetic)
// =============================================================================

// Date is a calendar date truncated to day granularity, always UTC.
type Date struct {
	Time time.Time
}

// NewDate constructs a Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates an arbitrary time to its calendar day.
func FromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return FromTime(time.Now().UTC())
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return FromTime(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return FromTime(d.Time.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return FromTime(d.Time.AddDate(0, n, 0)) }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// Min returns the earlier of two dates.
func Min(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// Max returns the later of two dates.
func Max(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// DaysBetween returns the number of whole days from one date to another.
// Negative when to precedes from.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// SpanDays returns the inclusive day count of [start, end].
func SpanDays(start, end Date) int {
	return DaysBetween(start, end) + 1
}

// Overlaps reports whether two inclusive date ranges intersect.
// Touching endpoints count: ranges are whole days.
func Overlaps(aStart, aEnd, bStart, bEnd Date) bool {
	return aStart.BeforeOrEqual(bEnd) && bStart.BeforeOrEqual(aEnd)
}

// IntersectionDays returns the number of days shared by two inclusive
// ranges, 0 when disjoint.
func IntersectionDays(aStart, aEnd, bStart, bEnd Date) int {
	days := SpanDays(Max(aStart, bStart), Min(aEnd, bEnd))
	if days < 0 {
		return 0
	}
	return days
}

// =============================================================================
// PERIOD - An inclusive date range
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

// NewPeriod constructs an inclusive period.
func NewPeriod(start, end Date) Period {
	return Period{Start: start, End: end}
}

// Valid reports whether the period's end is strictly after its start.
// Single-day commitments are not representable; the engine rejects them.
func (p Period) Valid() bool {
	return p.End.After(p.Start)
}

// Contains reports whether the day falls within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps reports whether two periods intersect.
func (p Period) Overlaps(other Period) bool {
	return Overlaps(p.Start, p.End, other.Start, other.End)
}

// IntersectionDays returns the shared day count of two periods.
func (p Period) IntersectionDays(other Period) int {
	return IntersectionDays(p.Start, p.End, other.Start, other.End)
}

// SpanDays returns the inclusive day count of the period.
func (p Period) SpanDays() int {
	return SpanDays(p.Start, p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// MONTH BUCKETING - For utilization reporting
// =============================================================================

// StartOfMonth returns the first day of the month containing d.
func StartOfMonth(d Date) Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// EndOfMonth returns the last day of the month containing d.
func EndOfMonth(d Date) Date {
	return NewDate(d.Year(), d.Month(), 1).AddMonths(1).AddDays(-1)
}

// MonthOf returns the full calendar month containing d.
func MonthOf(d Date) Period {
	return Period{Start: StartOfMonth(d), End: EndOfMonth(d)}
}

// MonthsCovering returns every full calendar month that overlaps the
// period, first-to-last day, in chronological order.
func MonthsCovering(p Period) []Period {
	var months []Period
	current := StartOfMonth(p.Start)
	for current.BeforeOrEqual(p.End) {
		months = append(months, MonthOf(current))
		current = current.AddMonths(1)
	}
	return months
}
