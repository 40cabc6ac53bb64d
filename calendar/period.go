package calendar

import "time"

// =============================================================================
// PERIOD - Inclusive range of calendar days
// =============================================================================

// Period is the inclusive range [Start, End]. A period whose End is before its
// Start is empty.
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the day is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Len returns the number of days in the period (0 when empty).
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns every day in the period in ascending order.
func (p Period) Days() []Date {
	days := make([]Date, 0, p.Len())
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Clamp returns the part of the period that ends no later than limit.
func (p Period) Clamp(limit Date) Period {
	if p.End.After(limit) {
		return Period{Start: p.Start, End: limit}
	}
	return p
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// WeekOf returns the Monday..Sunday period containing the day.
func WeekOf(d Date) Period {
	monday := d.Monday()
	return Period{Start: monday, End: monday.AddDays(6)}
}

// MonthOf returns the calendar month containing the day.
func MonthOf(d Date) Period {
	return Period{Start: StartOfMonth(d.Year(), d.Month()), End: EndOfMonth(d.Year(), d.Month())}
}

func StartOfMonth(year int, month time.Month) Date { return New(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date { return New(year, month+1, 1).AddDays(-1) }
