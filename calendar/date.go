/*
Package calendar provides the calendar-day value type used by the scoring engine.

PURPOSE:
  Habit logs are keyed by calendar day, never by instant. Date is a day with no
  time-of-day and no zone: two Dates are equal exactly when they name the same
  day. All arithmetic happens in UTC so daylight-saving transitions can never
  make a day 23 or 25 hours long.

KEY CONCEPTS:
  - Date:   A calendar day, formatted as YYYY-MM-DD
  - Week:   An ISO-8601 week (Monday start), identified by year + number
  - Period: An inclusive [Start, End] range of days (period.go)

PARSING:
  Parse is strict. Anything that is not a real YYYY-MM-DD day fails with
  ErrInvalidDateFormat so callers fail fast instead of miscomputing.

SEE ALSO:
  - period.go: Period, WeekOf, MonthOf
  - scoring/streaks.go: the main consumer of ISO weeks
*/
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the canonical date layout (ISO 8601 calendar date).
const Layout = "2006-01-02"

// ErrInvalidDateFormat is returned when a string is not a YYYY-MM-DD day.
var ErrInvalidDateFormat = errors.New("invalid date format (expected YYYY-MM-DD)")

// =============================================================================
// DATE
// =============================================================================

// Date is a calendar day. The zero value is not a valid day; use IsZero to check.
type Date struct {
	t time.Time
}

// New builds a Date from its components. Out-of-range components are
// normalized the way time.Date normalizes them.
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Parse parses a YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	if len(s) != len(Layout) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return Date{t: t}, nil
}

// MustParse is like Parse but panics on error. Use only for literals.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the calendar day of t as seen in t's own location.
func FromTime(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day in loc (time.Local when loc is nil).
// The scoring engine never calls this; collaborators compute "today" and pass it in.
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// LoadLocation resolves an IANA zone name. Empty and "Local" mean the system zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Time() time.Time { return d.t }
func (d Date) String() string { return d.t.Format(Layout) }
func (d Date) IsWeekend() bool { return d.Weekday() == time.Saturday || d.Weekday() == time.Sunday }
func (d Date) IsWeekday() bool { return !d.IsWeekend() }

// DaysBetween returns the signed number of days from -> to.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// ISO WEEK
// =============================================================================

// Week identifies an ISO-8601 week. Comparing whole Week values (year and
// number) detects every week change, including across a year boundary.
type Week struct {
	Year   int
	Number int
}

func (w Week) String() string { return fmt.Sprintf("%d-W%02d", w.Year, w.Number) }

// ISOWeek returns the ISO week the day belongs to.
func (d Date) ISOWeek() Week {
	y, n := d.t.ISOWeek()
	return Week{Year: y, Number: n}
}

// Monday returns the Monday that starts the day's ISO week.
func (d Date) Monday() Date {
	offset := (int(d.Weekday()) + 6) % 7 // Mon=0 .. Sun=6
	return d.AddDays(-offset)
}

// WeekDates returns the seven days Monday..Sunday of the day's ISO week.
func (d Date) WeekDates() [7]Date {
	var out [7]Date
	monday := d.Monday()
	for i := range out {
		out[i] = monday.AddDays(i)
	}
	return out
}
