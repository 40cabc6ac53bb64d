package backup_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/habit-engine/backup"
	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/catalog"
	"github.com/keystone/habit-engine/scoring"
)

var now = time.Date(2024, 1, 21, 20, 0, 0, 0, time.UTC)

func sampleLogs() scoring.DailyLogs {
	done := now.Add(-48 * time.Hour)
	return scoring.DailyLogs{
		"2024-01-19": {
			{ID: "a", Date: "2024-01-19", HabitID: "h1", Completed: true, XPEarned: 20, CompletedAt: &done},
			{ID: "b", Date: "2024-01-19", HabitID: "h10", Completed: true, IsBadDayVersion: true, XPEarned: 5, CompletedAt: &done},
		},
		"2024-01-20": {
			{ID: "c", Date: "2024-01-20", HabitID: "h2", Completed: false},
		},
	}
}

func TestRoundTripPreservesSummaries(t *testing.T) {
	// GIVEN: the default catalog and some history
	habits := catalog.MustDefaults(now)
	logs := sampleLogs()

	// WHEN: exporting and importing again
	data, err := backup.Marshal(backup.Export(habits, logs, now))
	require.NoError(t, err)
	doc, err := backup.Import(data)
	require.NoError(t, err)

	// THEN: every day summarizes identically
	engine := scoring.DefaultEngine()
	period := calendar.Period{Start: calendar.MustParse("2024-01-15"), End: calendar.MustParse("2024-01-21")}
	assert.Equal(t, engine.Summaries(habits, logs, period), engine.Summaries(doc.Habits, doc.DailyLogs, period))
	assert.Equal(t, backup.CurrentVersion, doc.Version)
	assert.Equal(t, now, doc.ExportedAt)
}

func TestImport_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "invalid JSON", data: `{"habits": [`, want: "invalid JSON"},
		{name: "missing habits", data: `{"dailyLogs": {}}`, want: "missing habits or dailyLogs"},
		{name: "missing dailyLogs", data: `{"habits": []}`, want: "missing habits or dailyLogs"},
		{name: "null dailyLogs", data: `{"habits": [], "dailyLogs": null}`, want: "missing habits or dailyLogs"},
		{name: "habits not an array", data: `{"habits": {}, "dailyLogs": {}}`, want: "habits must be an array"},
		{name: "future version", data: `{"version": 9, "habits": [], "dailyLogs": {}}`, want: "unsupported version"},
		{name: "bad date key", data: `{"version": 2, "habits": [], "dailyLogs": {"01/15/2024": [{"id": "a", "date": "01/15/2024", "habitId": "h1"}]}}`, want: "invalid date"},
		{name: "entry under wrong key", data: `{"version": 2, "habits": [], "dailyLogs": {"2024-01-15": [{"id": "a", "date": "2024-01-16", "habitId": "h1"}]}}`, want: "filed under"},
		{name: "entry without habit", data: `{"version": 2, "habits": [], "dailyLogs": {"2024-01-15": [{"id": "a", "date": "2024-01-15"}]}}`, want: "HabitID"},
		{name: "duplicate pair", data: `{"version": 2, "habits": [], "dailyLogs": {"2024-01-15": [{"id": "a", "date": "2024-01-15", "habitId": "h1"}, {"id": "b", "date": "2024-01-15", "habitId": "h1"}]}}`, want: "logged twice"},
		{name: "invalid habit", data: `{"version": 2, "habits": [{"id": "h1", "name": "", "xp": 10}], "dailyLogs": {}}`, want: "habit h1"},
		{name: "duplicate habit id", data: `{"version": 2, "habits": [{"id": "h1"}, {"id": "h1"}], "dailyLogs": {}}`, want: "duplicate id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := backup.Import([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, backup.ErrInvalidBackup)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestImport_BadDateKeyIsInvalidInput(t *testing.T) {
	_, err := backup.Import([]byte(`{"habits": [], "dailyLogs": {"yesterday": []}}`))
	assert.ErrorIs(t, err, scoring.ErrInvalidDateFormat)
}

func TestImport_MigratesVersion1(t *testing.T) {
	// GIVEN: a v1 export whose weekly habits carry no weekday restriction
	habits := catalog.MustDefaults(now)
	for i := range habits {
		habits[i].SpecificWeekdays = nil
	}
	doc := backup.Export(habits, scoring.DailyLogs{}, now)
	doc.Version = 1
	data, err := backup.Marshal(doc)
	require.NoError(t, err)

	// WHEN
	got, err := backup.Import(data)
	require.NoError(t, err)

	// THEN: the legacy ids are restricted again, other habits untouched
	assert.Equal(t, backup.CurrentVersion, got.Version)
	assert.Equal(t, []time.Weekday{time.Friday}, scoring.FindHabit(got.Habits, catalog.LegacyFridayHabitID).SpecificWeekdays)
	assert.Equal(t, []time.Weekday{time.Sunday}, scoring.FindHabit(got.Habits, catalog.LegacySundayHabitID).SpecificWeekdays)
	assert.Empty(t, scoring.FindHabit(got.Habits, "h1").SpecificWeekdays)
}

func TestExport_EmptyStateEncodesCollections(t *testing.T) {
	data, err := backup.Marshal(backup.Export(nil, nil, now))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"habits": []`)
	assert.Contains(t, string(data), `"dailyLogs": {}`)

	_, err = backup.Import(data)
	assert.NoError(t, err)
}

func TestWriteAndReadFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	today := calendar.MustParse("2024-01-21")

	data, err := backup.Marshal(backup.Export(catalog.MustDefaults(now), sampleLogs(), now))
	require.NoError(t, err)

	path, err := backup.WriteFile(dir, data, today)
	require.NoError(t, err)
	assert.Equal(t, "keystone-habits-backup-2024-01-21.json", filepath.Base(path))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, written)

	doc, err := backup.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Habits, 11)
	assert.Len(t, doc.DailyLogs, 2)
}
