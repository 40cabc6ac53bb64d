/*
Package scoring is the Scoring & Streak Engine.

PURPOSE:
  Converts a habit catalog and a log of daily completions into derived
  metrics: which habits apply on a day, per-day XP summaries, day-quality
  classifications, streaks and XP totals. Nothing here is persisted; every
  call recomputes from the inputs it is handed.

KEY CONCEPTS IN THIS FILE (habit.go):
  - Habit:      A recurring task definition (the catalog entry)
  - LogEntry:   One habit's outcome on one date
  - DailyLogs:  Log entries grouped by ISO date key
  - XPSnapshot: The XP amount + variant frozen at toggle time

DESIGN PRINCIPLES:
  1. Pure: no I/O, no clock, no mutation of inputs
  2. Historical fidelity: XPEarned is a snapshot and is never recomputed
     from the live Habit record
  3. Safe for concurrent use: an Engine is read-only after construction

SEE ALSO:
  - applicability.go: which habits are in play on a date
  - summary.go:       DaySummary calculation
  - streaks.go:       current/best/perfect/weekly streaks
  - grace.go:         per-ISO-week grace bookkeeping
*/
package scoring

import (
	"sort"
	"time"

	"github.com/keystone/habit-engine/calendar"
)

// =============================================================================
// HABIT
// =============================================================================

// AppliesTo selects the kind of day a habit is scheduled for.
type AppliesTo string

const (
	AppliesWeekday AppliesTo = "weekday"
	AppliesWeekend AppliesTo = "weekend"
	AppliesBoth    AppliesTo = "both"
)

// Category groups habits for display.
type Category string

const (
	CategoryHealth       Category = "health"
	CategoryProductivity Category = "productivity"
	CategoryMoney        Category = "money"
	CategoryRelationship Category = "relationship"
)

// TimeOfDay is a display hint for when a habit is usually done.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
	TimeAnytime   TimeOfDay = "anytime"
)

// Habit is a recurring task definition.
//
// SpecificWeekdays restricts the habit to the listed weekdays on top of the
// AppliesTo rule; an empty set means no extra restriction. BadDayXP <= XP is
// expected but not enforced here.
type Habit struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	XP               int            `json:"xp"`
	Category         Category       `json:"category"`
	TimeOfDay        TimeOfDay      `json:"timeOfDay"`
	AppliesTo        AppliesTo      `json:"appliesTo"`
	SpecificWeekdays []time.Weekday `json:"specificWeekdays,omitempty"`
	BadDayVersion    string         `json:"badDayVersion"`
	BadDayXP         int            `json:"badDayXp"`
	SortOrder        int            `json:"sortOrder"`
	Active           bool           `json:"active"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// FindHabit returns the habit with the given id, or nil.
func FindHabit(habits []Habit, id string) *Habit {
	for i := range habits {
		if habits[i].ID == id {
			return &habits[i]
		}
	}
	return nil
}

// =============================================================================
// XP SNAPSHOT - value captured when a log entry is toggled
// =============================================================================

// Variant is the kind of completion recorded for a log entry.
type Variant string

const (
	VariantNone    Variant = "none"
	VariantFull    Variant = "full"
	VariantReduced Variant = "reduced"
)

// XPSnapshot is the XP awarded for one log entry, frozen at toggle time.
// Later edits to the habit's XP never change an existing snapshot.
type XPSnapshot struct {
	Amount  int
	Variant Variant
}

// FullXP is the snapshot for completing the habit in full.
func FullXP(h Habit) XPSnapshot { return XPSnapshot{Amount: h.XP, Variant: VariantFull} }

// ReducedXP is the snapshot for completing the habit's bad-day version.
func ReducedXP(h Habit) XPSnapshot { return XPSnapshot{Amount: h.BadDayXP, Variant: VariantReduced} }

// NoXP is the snapshot of an unchecked entry.
func NoXP() XPSnapshot { return XPSnapshot{Variant: VariantNone} }

// =============================================================================
// LOG ENTRY
// =============================================================================

// LogEntry records a single habit's outcome on a single date. At most one
// entry exists per (Date, HabitID). An incomplete entry carries XPEarned = 0.
type LogEntry struct {
	ID              string     `json:"id"`
	Date            string     `json:"date"`
	HabitID         string     `json:"habitId"`
	Completed       bool       `json:"completed"`
	IsBadDayVersion bool       `json:"isBadDayVersion"`
	XPEarned        int        `json:"xpEarned"`
	CompletedAt     *time.Time `json:"completedAt"`
	Note            *string    `json:"note"`
}

// Snapshot returns the XP snapshot the entry currently holds.
func (l LogEntry) Snapshot() XPSnapshot {
	switch {
	case !l.Completed:
		return NoXP()
	case l.IsBadDayVersion:
		return XPSnapshot{Amount: l.XPEarned, Variant: VariantReduced}
	default:
		return XPSnapshot{Amount: l.XPEarned, Variant: VariantFull}
	}
}

// WithSnapshot returns a copy of the entry carrying s. CompletedAt is set
// when the entry becomes completed, kept when switching between variants and
// cleared when unchecked.
func (l LogEntry) WithSnapshot(s XPSnapshot, at time.Time) LogEntry {
	wasCompleted := l.Completed
	switch s.Variant {
	case VariantFull, VariantReduced:
		l.Completed = true
		l.IsBadDayVersion = s.Variant == VariantReduced
		l.XPEarned = s.Amount
		if !wasCompleted || l.CompletedAt == nil {
			ts := at
			l.CompletedAt = &ts
		}
	default:
		l.Completed = false
		l.IsBadDayVersion = false
		l.XPEarned = 0
		l.CompletedAt = nil
	}
	return l
}

// =============================================================================
// DAILY LOGS
// =============================================================================

// DailyLogs maps an ISO date key (YYYY-MM-DD) to that day's unordered entries.
type DailyLogs map[string][]LogEntry

// For returns the entries recorded on the given day.
func (dl DailyLogs) For(d calendar.Date) []LogEntry {
	return dl[d.String()]
}

// Dates validates every key and returns the days holding at least one entry,
// ascending. A malformed key fails with ErrInvalidDateFormat.
func (dl DailyLogs) Dates() ([]calendar.Date, error) {
	dates := make([]calendar.Date, 0, len(dl))
	for key, entries := range dl {
		d, err := calendar.Parse(key)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// Clone returns a deep copy whose slices can be modified freely.
func (dl DailyLogs) Clone() DailyLogs {
	out := make(DailyLogs, len(dl))
	for k, entries := range dl {
		out[k] = append([]LogEntry(nil), entries...)
	}
	return out
}

func hasCompleted(entries []LogEntry) bool {
	for _, l := range entries {
		if l.Completed {
			return true
		}
	}
	return false
}
