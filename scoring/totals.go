package scoring

import "github.com/keystone/habit-engine/calendar"

// =============================================================================
// AGGREGATE TOTALS
// =============================================================================

// TotalXP sums XPEarned over every completed entry in the log map.
func TotalXP(logs DailyLogs) int {
	total := 0
	for _, entries := range logs {
		for _, l := range entries {
			if l.Completed {
				total += l.XPEarned
			}
		}
	}
	return total
}

// Summaries returns one DaySummary per day of the period, ascending.
func (e *Engine) Summaries(habits []Habit, logs DailyLogs, period calendar.Period) []DaySummary {
	days := period.Days()
	out := make([]DaySummary, 0, len(days))
	for _, d := range days {
		out = append(out, e.DaySummary(habits, logs.For(d), d))
	}
	return out
}

// MonthStats aggregates the days of a month up to and including today.
// MVDDays counts streak days that are not perfect.
type MonthStats struct {
	Month       string `json:"month"`
	DaysCounted int    `json:"daysCounted"`
	PerfectDays int    `json:"perfectDays"`
	MVDDays     int    `json:"mvdDays"`
	XPEarned    int    `json:"xpEarned"`
	XPPossible  int    `json:"xpPossible"`
}

// MonthlyStats aggregates the month containing today, from its first day
// through today.
func (e *Engine) MonthlyStats(habits []Habit, logs DailyLogs, today calendar.Date) MonthStats {
	return e.MonthStatsFor(habits, logs, calendar.MonthOf(today), today)
}

// MonthStatsFor aggregates the month period, skipping days after today.
func (e *Engine) MonthStatsFor(habits []Habit, logs DailyLogs, month calendar.Period, today calendar.Date) MonthStats {
	stats := MonthStats{Month: month.Start.String()[:7]}
	for _, s := range e.Summaries(habits, logs, month.Clamp(today)) {
		stats.DaysCounted++
		stats.XPEarned += s.TotalXPEarned
		stats.XPPossible += s.TotalXPPossible
		switch {
		case s.IsPerfectDay:
			stats.PerfectDays++
		case s.StreakDay:
			stats.MVDDays++
		}
	}
	return stats
}
