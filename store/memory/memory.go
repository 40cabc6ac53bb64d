// Package memory provides an in-memory tracker.Store (for tests and demos).
package memory

import (
	"context"
	"sync"

	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/scoring"
	"github.com/keystone/habit-engine/tracker"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store keeps the catalog and log map in process memory. Every read returns
// a copy; callers can never alias stored slices.
type Store struct {
	mu     sync.RWMutex
	habits []scoring.Habit
	logs   scoring.DailyLogs
	seeded bool
}

var _ tracker.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{logs: scoring.DailyLogs{}}
}

func (m *Store) Habits(_ context.Context) ([]scoring.Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyHabits(m.habits), nil
}

func (m *Store) SaveHabits(_ context.Context, habits []scoring.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.habits = copyHabits(habits)
	return nil
}

func (m *Store) Logs(_ context.Context) (scoring.DailyLogs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logs.Clone(), nil
}

func (m *Store) LogsForDate(_ context.Context, date calendar.Date) ([]scoring.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]scoring.LogEntry(nil), m.logs.For(date)...), nil
}

// SaveLog upserts by (Date, HabitID), keeping the entry's position on update.
func (m *Store) SaveLog(_ context.Context, entry scoring.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.logs[entry.Date]
	for i := range entries {
		if entries[i].HabitID == entry.HabitID {
			entries[i] = entry
			return nil
		}
	}
	m.logs[entry.Date] = append(entries, entry)
	return nil
}

// ReplaceAll swaps both collections under one lock, so readers observe
// either the old state or the new one.
func (m *Store) ReplaceAll(_ context.Context, habits []scoring.Habit, logs scoring.DailyLogs) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.habits = copyHabits(habits)
	if logs == nil {
		logs = scoring.DailyLogs{}
	}
	m.logs = logs.Clone()
	return nil
}

func (m *Store) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.habits = nil
	m.logs = scoring.DailyLogs{}
	m.seeded = false
	return nil
}

func (m *Store) Seeded(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seeded, nil
}

func (m *Store) MarkSeeded(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeded = true
	return nil
}

func copyHabits(in []scoring.Habit) []scoring.Habit {
	if in == nil {
		return nil
	}
	out := make([]scoring.Habit, len(in))
	for i, h := range in {
		h.SpecificWeekdays = append(h.SpecificWeekdays[:0:0], h.SpecificWeekdays...)
		out[i] = h
	}
	return out
}
