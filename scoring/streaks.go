/*
streaks.go - Streak metrics

PURPOSE:
  Derives four streak counts from the full log history and "today".

  currentStreak  backward walk from today (or yesterday when today has no
                 completed entry), stops at the first unforgiven failure
  bestStreak     forward scan from the earliest logged day through today,
                 failures reset the run but never stop the scan
  perfectStreak  longest run of perfect days (same forward scan, no grace)
  weeklyStreak   consecutive ISO weeks with >= 4 of 5 weekdays at MVD+

GRACE:
  current and best share GraceTracker: one failed or empty day per ISO week
  still counts toward the streak. Grace is only replenished by a change of
  ISO week, never by a failure.

BOUNDS:
  The backward walk visits at most MaxCurrentStreakDays days and the weekly
  walk at most MaxWeeklyStreakWeeks weeks. Hitting a bound truncates silently.

SEE ALSO:
  - grace.go:   GraceTracker state machine
  - summary.go: StreakDay and IsPerfectDay come from DaySummary
*/
package scoring

import "github.com/keystone/habit-engine/calendar"

const (
	// MaxCurrentStreakDays caps the backward current-streak walk.
	MaxCurrentStreakDays = 400

	// MaxWeeklyStreakWeeks caps the weekly-streak walk.
	MaxWeeklyStreakWeeks = 52

	// WeeklyStreakMinDays is the number of Mon-Fri streak days a full week needs.
	WeeklyStreakMinDays = 4
)

// StreakSnapshot holds the four streak metrics. All values are >= 0 and
// BestStreak >= CurrentStreak.
type StreakSnapshot struct {
	CurrentStreak int `json:"currentStreak"`
	BestStreak    int `json:"bestStreak"`
	PerfectStreak int `json:"perfectStreak"`
	WeeklyStreak  int `json:"weeklyStreak"`
}

// Streaks computes every streak metric as of today. It fails with
// ErrInvalidDateFormat when a log-map key is not an ISO date. A log map with
// no entries at all yields a zero snapshot.
func (e *Engine) Streaks(habits []Habit, logs DailyLogs, today calendar.Date) (StreakSnapshot, error) {
	dates, err := logs.Dates()
	if err != nil {
		return StreakSnapshot{}, err
	}
	if len(dates) == 0 {
		return StreakSnapshot{}, nil
	}

	w := walker{engine: e, habits: habits, logs: logs}

	current := w.currentStreak(today)
	best, perfect := w.bestAndPerfect(dates[0], today, current)
	weekly := w.weeklyStreak(today)

	return StreakSnapshot{
		CurrentStreak: current,
		BestStreak:    best,
		PerfectStreak: perfect,
		WeeklyStreak:  weekly,
	}, nil
}

// walker bundles the inputs shared by the three walks.
type walker struct {
	engine *Engine
	habits []Habit
	logs   DailyLogs
}

func (w walker) summary(d calendar.Date) DaySummary {
	return w.engine.DaySummary(w.habits, w.logs.For(d), d)
}

func (w walker) currentStreak(today calendar.Date) int {
	day := today
	if !hasCompleted(w.logs.For(today)) {
		day = today.AddDays(-1)
	}

	var grace GraceTracker
	streak := 0
	for i := 0; i < MaxCurrentStreakDays; i, day = i+1, day.AddDays(-1) {
		grace.Enter(day)

		entries := w.logs.For(day)
		if len(entries) == 0 && i > 0 {
			if !grace.Consume() {
				break
			}
			streak++
			continue
		}

		if w.summary(day).StreakDay || grace.Consume() {
			streak++
			continue
		}
		break
	}
	return streak
}

func (w walker) bestAndPerfect(first, today calendar.Date, current int) (best, perfect int) {
	best = current

	var grace GraceTracker
	run, perfectRun := 0, 0
	for day := first; day.BeforeOrEqual(today); day = day.AddDays(1) {
		grace.Enter(day)
		s := w.summary(day)

		switch {
		case s.StreakDay:
			run++
		case grace.Consume():
			run++
		default:
			run = 0
		}
		best = max(best, run)

		if s.IsPerfectDay {
			perfectRun++
			perfect = max(perfect, perfectRun)
		} else {
			perfectRun = 0
		}
	}
	return best, perfect
}

func (w walker) weeklyStreak(today calendar.Date) int {
	streak := 0
	for wk := 0; wk < MaxWeeklyStreakWeeks; wk++ {
		week := today.AddDays(-7 * wk).WeekDates()

		elapsed, qualifying := 0, 0
		for _, d := range week[:5] {
			if d.After(today) {
				continue
			}
			elapsed++
			if w.summary(d).StreakDay {
				qualifying++
			}
		}

		threshold := WeeklyStreakMinDays
		if wk == 0 {
			threshold = min(WeeklyStreakMinDays, elapsed)
		}
		if elapsed == 0 || qualifying < threshold {
			break
		}
		streak++
	}
	return streak
}
