/*
Package tracker connects the scoring engine to storage.

PURPOSE:
  The engine is pure: it never reads the clock, never persists and never
  mutates its inputs. This package is the collaborator around it. It
  records toggles, loads the catalog and log map, memoizes streak
  snapshots, and exposes one Service used by both the HTTP API and the CLI.

TOGGLE RULES (toggle.go):
  Full toggle:
    completed (full or reduced) -> unchecked, 0 XP, completedAt cleared
    unchecked or missing        -> full, habit.xp
  Reduced (MVD) toggle:
    full     -> reduced, habit.badDayXp (completedAt kept)
    reduced  -> full, habit.xp (completedAt kept)
    unchecked or missing -> reduced, habit.badDayXp

  XP is snapshotted from the habit at toggle time (scoring.XPSnapshot);
  later habit edits never rewrite existing entries.

SEE ALSO:
  - service.go: Service facade
  - store.go:   Store interface
  - cache.go:   SnapshotCache
*/
package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/catalog"
	"github.com/keystone/habit-engine/scoring"
)

// ErrHabitNotFound is returned when toggling a habit id the catalog lacks.
var ErrHabitNotFound = catalog.ErrHabitNotFound

// Mode selects which toggle is applied.
type Mode string

const (
	ModeFull    Mode = "full"
	ModeReduced Mode = "reduced"
)

// NextSnapshot returns the XP snapshot an entry moves to when toggled.
func NextSnapshot(h scoring.Habit, current scoring.XPSnapshot, mode Mode) scoring.XPSnapshot {
	switch mode {
	case ModeReduced:
		if current.Variant == scoring.VariantReduced {
			return scoring.FullXP(h)
		}
		return scoring.ReducedXP(h)
	default:
		if current.Variant == scoring.VariantNone {
			return scoring.FullXP(h)
		}
		return scoring.NoXP()
	}
}

// Toggle returns the entry for (date, habit) after applying the toggle.
// existing may be nil, in which case a new entry with a fresh id is created.
func Toggle(h scoring.Habit, existing *scoring.LogEntry, date calendar.Date, mode Mode, now time.Time) scoring.LogEntry {
	var entry scoring.LogEntry
	if existing != nil {
		entry = *existing
	} else {
		entry = scoring.LogEntry{
			ID:      uuid.NewString(),
			Date:    date.String(),
			HabitID: h.ID,
		}
	}
	return entry.WithSnapshot(NextSnapshot(h, entry.Snapshot(), mode), now)
}

// ApplyToggle toggles a habit inside a log map and returns the updated copy
// together with the resulting entry. The input map is not modified.
func ApplyToggle(habits []scoring.Habit, logs scoring.DailyLogs, date calendar.Date, habitID string, mode Mode, now time.Time) (scoring.DailyLogs, scoring.LogEntry, error) {
	h := scoring.FindHabit(habits, habitID)
	if h == nil {
		return nil, scoring.LogEntry{}, fmt.Errorf("%w: %s", ErrHabitNotFound, habitID)
	}

	out := logs.Clone()
	key := date.String()
	entries := out[key]

	idx := findEntry(entries, habitID)
	var existing *scoring.LogEntry
	if idx >= 0 {
		existing = &entries[idx]
	}

	updated := Toggle(*h, existing, date, mode, now)
	if idx >= 0 {
		entries[idx] = updated
	} else {
		entries = append(entries, updated)
	}
	out[key] = entries
	return out, updated, nil
}

func findEntry(entries []scoring.LogEntry, habitID string) int {
	for i := range entries {
		if entries[i].HabitID == habitID {
			return i
		}
	}
	return -1
}
