package api_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/habit-engine/api"
	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/catalog"
	"github.com/keystone/habit-engine/scoring"
	"github.com/keystone/habit-engine/tracker"
)

func TestBuildScenario(t *testing.T) {
	habits := catalog.MustDefaults(t0)
	engine := scoring.DefaultEngine()
	today := calendar.MustParse("2024-01-15") // Monday

	tests := []struct {
		id   string
		want scoring.StreakSnapshot
	}{
		// 9..15 done; grace covers Mon 8 (W02) and Sun 7 (W01)
		{id: "perfect-week", want: scoring.StreakSnapshot{CurrentStreak: 9, BestStreak: 9, PerfectStreak: 7, WeeklyStreak: 2}},
		// Wednesdays 3 and 10 missed, each absorbed by its week's grace
		{id: "grace-week", want: scoring.StreakSnapshot{CurrentStreak: 14, BestStreak: 14, PerfectStreak: 6, WeeklyStreak: 2}},
		// Dec 25..Jan 7 done, Jan 8..11 empty, Jan 12..15 done
		{id: "broken-streak", want: scoring.StreakSnapshot{CurrentStreak: 5, BestStreak: 15, PerfectStreak: 14, WeeklyStreak: 1}},
		// Dec 17..Jan 15 at MVD level, plus grace for Sat Dec 16
		{id: "mvd-month", want: scoring.StreakSnapshot{CurrentStreak: 31, BestStreak: 31, PerfectStreak: 0, WeeklyStreak: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			logs, err := api.BuildScenario(tt.id, habits, engine, today)
			require.NoError(t, err)

			got, err := engine.Streaks(habits, logs, today)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildScenario_MVDMonthStaysMVD(t *testing.T) {
	habits := catalog.MustDefaults(t0)
	engine := scoring.DefaultEngine()
	today := calendar.MustParse("2024-01-15")

	logs, err := api.BuildScenario("mvd-month", habits, engine, today)
	require.NoError(t, err)

	period := calendar.Period{Start: today.AddDays(-29), End: today}
	for _, s := range engine.Summaries(habits, logs, period) {
		assert.Equal(t, scoring.ClassMVD, s.Classification, s.Date.String())
	}
}

func TestBuildScenario_Unknown(t *testing.T) {
	_, err := api.BuildScenario("nope", nil, scoring.DefaultEngine(), calendar.MustParse("2024-01-15"))
	assert.Error(t, err)
}

func TestRolloverScheduler_Check(t *testing.T) {
	svc, c := newService(t)
	dir := t.TempDir()

	rs := api.NewRolloverScheduler(svc)
	rs.BackupDir = dir

	// GIVEN: a memoized snapshot
	_, err := svc.Toggle(t.Context(), calendar.MustParse("2024-01-15"), "h2", tracker.ModeFull)
	require.NoError(t, err)
	_, err = svc.Streaks(t.Context())
	require.NoError(t, err)

	// Same day: nothing happens
	assert.False(t, rs.Check())
	c.t = c.t.Add(10 * time.Hour)
	assert.False(t, rs.Check())

	// WHEN: the clock passes midnight
	c.t = c.t.Add(10 * time.Hour)
	changed := rs.Check()

	// THEN: the day changed and yesterday's backup exists
	assert.True(t, changed)
	_, err = os.Stat(filepath.Join(dir, "keystone-habits-backup-2024-01-15.json"))
	assert.NoError(t, err)
	assert.False(t, rs.Check())
}

func TestRolloverScheduler_StartStop(t *testing.T) {
	svc, _ := newService(t)

	rs := api.NewRolloverScheduler(svc)
	rs.CheckInterval = 5 * time.Millisecond
	rs.Start()
	rs.Start()
	time.Sleep(20 * time.Millisecond)
	rs.Stop()
	rs.Stop()

	disabled := api.NewRolloverScheduler(svc)
	disabled.Enabled = false
	disabled.Start()
	disabled.Stop()
}
