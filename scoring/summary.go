/*
summary.go - Day summary calculation

PURPOSE:
  Reduces one day's log entries plus the habits applicable on that day into
  XP totals, a completion percent and a day classification. Every streak
  walk is built on top of this one function.

CALCULATION:
  TotalXPPossible   = sum(xp) over habits applicable on the day
  TotalXPEarned     = sum(xpEarned) over completed entries for the day
  CompletionPercent = round_half_up(earned / possible * 100), 0 when possible == 0

  Entries for habits that are not applicable (or no longer exist) still
  count toward TotalXPEarned. Historical XP survives habit deletion.

EXAMPLE:
  Possible 90, earned 40 (one full 20, two reduced 10s):
    40 / 90 * 100 = 44.44 -> 44 -> "mvd", streak day

SEE ALSO:
  - classify.go: Thresholds and Classification
  - streaks.go:  consumers of StreakDay and IsPerfectDay
*/
package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/keystone/habit-engine/calendar"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes derived metrics for a fixed set of thresholds. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an engine after validating the thresholds.
func NewEngine(t Thresholds) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Engine{thresholds: t}, nil
}

// DefaultEngine returns an engine using DefaultThresholds.
func DefaultEngine() *Engine {
	return &Engine{thresholds: DefaultThresholds()}
}

// Thresholds returns the engine's classification thresholds.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// =============================================================================
// DAY SUMMARY
// =============================================================================

// DayType is weekday or weekend.
type DayType string

const (
	DayWeekday DayType = "weekday"
	DayWeekend DayType = "weekend"
)

// DaySummary is the derived result for one calendar day. Never persisted.
type DaySummary struct {
	Date              calendar.Date  `json:"date"`
	DayType           DayType        `json:"dayType"`
	TotalXPPossible   int            `json:"totalXpPossible"`
	TotalXPEarned     int            `json:"totalXpEarned"`
	CompletionPercent int            `json:"completionPercent"`
	CompletedCount    int            `json:"completedCount"`
	ApplicableCount   int            `json:"applicableCount"`
	IsPerfectDay      bool           `json:"isPerfectDay"`
	IsMVDDay          bool           `json:"isMvdDay"`
	IsZeroDay         bool           `json:"isZeroDay"`
	StreakDay         bool           `json:"streakDay"`
	Classification    Classification `json:"classification"`
}

// DaySummary computes the summary for a single day. logsForDate may be nil.
func (e *Engine) DaySummary(habits []Habit, logsForDate []LogEntry, date calendar.Date) DaySummary {
	applicable := ApplicableHabits(habits, date)

	possible := 0
	for _, h := range applicable {
		possible += h.XP
	}

	earned, completed := 0, 0
	for _, l := range logsForDate {
		if l.Completed {
			earned += l.XPEarned
			completed++
		}
	}

	percent := CompletionPercent(earned, possible)
	class := e.thresholds.Classify(percent)

	dayType := DayWeekday
	if date.IsWeekend() {
		dayType = DayWeekend
	}

	return DaySummary{
		Date:              date,
		DayType:           dayType,
		TotalXPPossible:   possible,
		TotalXPEarned:     earned,
		CompletionPercent: percent,
		CompletedCount:    completed,
		ApplicableCount:   len(applicable),
		IsPerfectDay:      len(applicable) > 0 && completed == len(applicable),
		IsMVDDay:          class == ClassMVD,
		IsZeroDay:         class == ClassZero,
		StreakDay:         e.thresholds.IsStreakDay(percent),
		Classification:    class,
	}
}

// CompletionPercent returns earned/possible as a whole percent, rounded half
// up. A zero denominator yields 0.
func CompletionPercent(earned, possible int) int {
	if possible <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(earned)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(possible)))
	return int(pct.Round(0).IntPart())
}
