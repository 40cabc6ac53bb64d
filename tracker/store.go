package tracker

import (
	"context"
	"errors"

	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/scoring"
)

// ErrStoreClosed is returned by stores used after Close.
var ErrStoreClosed = errors.New("store closed")

// =============================================================================
// STORE - persistence for the catalog and the log map
// =============================================================================

// Store persists the habit catalog and daily log entries.
//
// Log entries are unique per (date, habitID): SaveLog replaces any existing
// entry for the pair. Implementations must be safe for concurrent use.
//
// IMPLEMENTATIONS:
//   - store/memory: in-process maps, for tests and demos
//   - store/sqlite: SQLite database file
type Store interface {
	// Habits returns the full catalog in insertion order.
	Habits(ctx context.Context) ([]scoring.Habit, error)

	// SaveHabits replaces the catalog.
	SaveHabits(ctx context.Context, habits []scoring.Habit) error

	// Logs returns the full log map.
	Logs(ctx context.Context) (scoring.DailyLogs, error)

	// LogsForDate returns the entries recorded on one day.
	LogsForDate(ctx context.Context, date calendar.Date) ([]scoring.LogEntry, error)

	// SaveLog inserts or replaces the entry for (entry.Date, entry.HabitID).
	SaveLog(ctx context.Context, entry scoring.LogEntry) error

	// ReplaceAll atomically replaces both the catalog and the log map.
	ReplaceAll(ctx context.Context, habits []scoring.Habit, logs scoring.DailyLogs) error

	// Reset removes every habit, log entry and the seeded marker.
	Reset(ctx context.Context) error

	// Seeded reports whether the first-run catalog has been written.
	Seeded(ctx context.Context) (bool, error)

	// MarkSeeded records that the first-run catalog has been written.
	MarkSeeded(ctx context.Context) error
}
