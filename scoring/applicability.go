package scoring

import (
	"sort"
	"time"

	"github.com/keystone/habit-engine/calendar"
)

// ApplicableHabits returns the habits in play on the given day, ordered by
// SortOrder (ties keep catalog order). Rules, in order:
//  1. inactive habits are excluded
//  2. habits with SpecificWeekdays are excluded on any other weekday
//  3. AppliesTo must match the day's weekday/weekend status
func ApplicableHabits(habits []Habit, date calendar.Date) []Habit {
	out := make([]Habit, 0, len(habits))
	for _, h := range habits {
		if h.AppliesOn(date) {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// AppliesOn reports whether the habit is in play on the given day.
func (h Habit) AppliesOn(date calendar.Date) bool {
	if !h.Active {
		return false
	}
	if len(h.SpecificWeekdays) > 0 && !containsWeekday(h.SpecificWeekdays, date.Weekday()) {
		return false
	}
	switch h.AppliesTo {
	case AppliesBoth:
		return true
	case AppliesWeekday:
		return date.IsWeekday()
	case AppliesWeekend:
		return date.IsWeekend()
	default:
		return false
	}
}

func containsWeekday(set []time.Weekday, wd time.Weekday) bool {
	for _, d := range set {
		if d == wd {
			return true
		}
	}
	return false
}
