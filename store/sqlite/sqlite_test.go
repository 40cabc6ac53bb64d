package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/catalog"
	"github.com/keystone/habit-engine/scoring"
	"github.com/keystone/habit-engine/store/sqlite"
	"github.com/keystone/habit-engine/tracker"
)

var created = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_HabitsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// GIVEN: the default catalog, including weekday-restricted habits
	habits := catalog.MustDefaults(created)
	require.NoError(t, s.SaveHabits(ctx, habits))

	// WHEN
	got, err := s.Habits(ctx)
	require.NoError(t, err)

	// THEN: every field survives, in insertion order
	assert.Equal(t, habits, got)
	assert.Equal(t, []time.Weekday{time.Friday}, scoring.FindHabit(got, catalog.LegacyFridayHabitID).SpecificWeekdays)
}

func TestStore_SaveHabitsReplaces(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveHabits(ctx, catalog.MustDefaults(created)))
	require.NoError(t, s.SaveHabits(ctx, []scoring.Habit{{ID: "only", Name: "Only", XP: 5, CreatedAt: created}}))

	got, err := s.Habits(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "only", got[0].ID)
}

func TestStore_SaveLogUpserts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	day := calendar.MustParse("2024-01-15")
	note := "felt great"

	// GIVEN: two entries on the same day
	require.NoError(t, s.SaveLog(ctx, scoring.LogEntry{ID: "a", Date: day.String(), HabitID: "h1", Completed: true, XPEarned: 20, CompletedAt: &created, Note: &note}))
	require.NoError(t, s.SaveLog(ctx, scoring.LogEntry{ID: "b", Date: day.String(), HabitID: "h2", Completed: true, XPEarned: 10}))

	// WHEN: the first pair is unchecked
	require.NoError(t, s.SaveLog(ctx, scoring.LogEntry{ID: "a", Date: day.String(), HabitID: "h1"}))

	// THEN: it is updated in place
	entries, err := s.LogsForDate(ctx, day)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "h1", entries[0].HabitID)
	assert.False(t, entries[0].Completed)
	assert.Nil(t, entries[0].CompletedAt)
	assert.Nil(t, entries[0].Note)
	assert.Equal(t, 10, entries[1].XPEarned)
}

func TestStore_SaveLogDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveLog(ctx, scoring.LogEntry{ID: "a", Date: "2024-01-15", HabitID: "h1"}))
	err := s.SaveLog(ctx, scoring.LogEntry{ID: "a", Date: "2024-01-16", HabitID: "h1"})
	assert.ErrorIs(t, err, sqlite.ErrDuplicateLogID)
}

func TestStore_ReplaceAllAndReset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.MarkSeeded(ctx))

	done := created
	logs := scoring.DailyLogs{
		"2024-01-15": {{ID: "a", Date: "2024-01-15", HabitID: "h1", Completed: true, XPEarned: 20, CompletedAt: &done}},
		"2024-01-14": {{ID: "b", Date: "2024-01-14", HabitID: "h2", Completed: true, IsBadDayVersion: true, XPEarned: 5, CompletedAt: &done}},
	}
	habits := []scoring.Habit{{ID: "h1", Name: "One", XP: 20, CreatedAt: created}}
	require.NoError(t, s.ReplaceAll(ctx, habits, logs))

	got, err := s.Logs(ctx)
	require.NoError(t, err)
	assert.Equal(t, logs, got)

	seeded, err := s.Seeded(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	require.NoError(t, s.Reset(ctx))
	gotHabits, _ := s.Habits(ctx)
	got, _ = s.Logs(ctx)
	seeded, _ = s.Seeded(ctx)
	assert.Empty(t, gotHabits)
	assert.Empty(t, got)
	assert.False(t, seeded)
}

func TestStore_ReplaceAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveHabits(ctx, []scoring.Habit{{ID: "keep", Name: "Keep", XP: 1, CreatedAt: created}}))

	// GIVEN: an import whose logs reuse one id for two pairs
	logs := scoring.DailyLogs{
		"2024-01-15": {
			{ID: "dup", Date: "2024-01-15", HabitID: "h1"},
			{ID: "dup", Date: "2024-01-15", HabitID: "h2"},
		},
	}

	// WHEN
	err := s.ReplaceAll(ctx, []scoring.Habit{{ID: "new", CreatedAt: created}}, logs)

	// THEN: nothing changed
	require.Error(t, err)
	habits, _ := s.Habits(ctx)
	require.Len(t, habits, 1)
	assert.Equal(t, "keep", habits[0].ID)
}

func TestStore_ReplaceAllRejectsBadDateKey(t *testing.T) {
	s := newStore(t)
	err := s.ReplaceAll(context.Background(), nil, scoring.DailyLogs{"15/01/2024": {{ID: "a"}}})
	assert.ErrorIs(t, err, scoring.ErrInvalidDateFormat)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keystone.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveLog(ctx, scoring.LogEntry{ID: "a", Date: "2024-01-15", HabitID: "h1", Completed: true, XPEarned: 20}))
	require.NoError(t, s.MarkSeeded(ctx))
	require.NoError(t, s.Close())

	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	seeded, err := s.Seeded(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)
	logs, err := s.Logs(ctx)
	require.NoError(t, err)
	assert.Len(t, logs["2024-01-15"], 1)
}

func TestStore_DrivesService(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)
	svc := tracker.NewService(newStore(t), nil, tracker.WithClock(func() time.Time { return now }))

	_, err := svc.EnsureSeeded(ctx)
	require.NoError(t, err)

	res, err := svc.Toggle(ctx, calendar.MustParse("2024-01-15"), "h2", tracker.ModeReduced)
	require.NoError(t, err)
	assert.True(t, res.Entry.IsBadDayVersion)

	day, err := svc.Day(ctx, calendar.MustParse("2024-01-15"))
	require.NoError(t, err)
	require.Len(t, day.Logs, 1)
	assert.Equal(t, res.Entry.XPEarned, day.Summary.TotalXPEarned)
}
