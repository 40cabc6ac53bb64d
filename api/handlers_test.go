package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/habit-engine/api"
	"github.com/keystone/habit-engine/scoring"
	"github.com/keystone/habit-engine/store/memory"
	"github.com/keystone/habit-engine/tracker"
)

// Monday 2024-01-15, 07:00 UTC
var t0 = time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(t *testing.T) (*tracker.Service, *clock) {
	t.Helper()
	c := &clock{t: t0}
	svc := tracker.NewService(memory.New(), nil, tracker.WithClock(c.now), tracker.WithLocation(time.UTC))
	_, err := svc.EnsureSeeded(t.Context())
	require.NoError(t, err)
	return svc, c
}

func newRouter(t *testing.T) (*chi.Mux, *tracker.Service) {
	t.Helper()
	svc, _ := newService(t)
	return api.NewRouter(api.NewHandler(svc), []string{"*"}), svc
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListHabits(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodGet, "/api/habits", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	habits := decodeBody[[]scoring.Habit](t, rec)
	assert.Len(t, habits, 11)
	assert.Equal(t, "h1", habits[0].ID)
}

func TestToggleFlow(t *testing.T) {
	r, _ := newRouter(t)

	// GIVEN: an empty Monday
	rec := do(t, r, http.MethodGet, "/api/days/2024-01-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	day := decodeBody[tracker.DayView](t, rec)
	assert.Len(t, day.Habits, 8)
	assert.Empty(t, day.Logs)
	assert.Equal(t, scoring.ClassZero, day.Summary.Classification)

	// WHEN: the workout is done in full, then switched to its bad-day version
	rec = do(t, r, http.MethodPost, "/api/days/2024-01-15/habits/h2/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	full := decodeBody[tracker.ToggleResult](t, rec)

	rec = do(t, r, http.MethodPost, "/api/days/today/habits/h2/toggle-mvd", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reduced := decodeBody[tracker.ToggleResult](t, rec)

	// THEN
	assert.Equal(t, 40, full.Entry.XPEarned)
	assert.True(t, reduced.Entry.IsBadDayVersion)
	assert.Equal(t, full.Entry.ID, reduced.Entry.ID)
	assert.Less(t, reduced.Summary.TotalXPEarned, full.Summary.TotalXPEarned)

	day = decodeBody[tracker.DayView](t, do(t, r, http.MethodGet, "/api/days/today", nil))
	require.Len(t, day.Logs, 1)
	assert.Equal(t, reduced.Summary, day.Summary)
}

func TestErrorStatuses(t *testing.T) {
	r, _ := newRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "malformed date", method: http.MethodGet, path: "/api/days/15-01-2024", want: http.StatusBadRequest},
		{name: "malformed week date", method: http.MethodGet, path: "/api/weeks/yesterday", want: http.StatusBadRequest},
		{name: "unknown habit toggle", method: http.MethodPost, path: "/api/days/2024-01-15/habits/ghost/toggle", want: http.StatusNotFound},
		{name: "unknown habit disable", method: http.MethodPost, path: "/api/habits/ghost/disable", want: http.StatusNotFound},
		{name: "invalid habit", method: http.MethodPost, path: "/api/habits", body: map[string]any{"name": "", "xp": 0}, want: http.StatusBadRequest},
		{name: "broken body", method: http.MethodPost, path: "/api/habits", body: []byte("{"), want: http.StatusBadRequest},
		{name: "empty reorder", method: http.MethodPost, path: "/api/habits/reorder", body: map[string]any{"ids": []string{}}, want: http.StatusBadRequest},
		{name: "unknown scenario", method: http.MethodPost, path: "/api/scenarios/load", body: map[string]any{"scenarioId": "nope"}, want: http.StatusBadRequest},
		{name: "invalid backup", method: http.MethodPost, path: "/api/import", body: []byte(`{"habits": {}}`), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			resp := decodeBody[api.ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCreateHabitReportsFields(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodPost, "/api/habits", map[string]any{
		"name": "Meditate", "xp": 10, "category": "health", "timeOfDay": "morning",
		"appliesTo": "both", "badDayXp": 20,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[api.ErrorResponse](t, rec)
	assert.Contains(t, resp.Fields, "badDayXp")
}

func TestHabitLifecycle(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodPost, "/api/habits", map[string]any{
		"name": "Meditate", "xp": 10, "category": "health", "timeOfDay": "morning",
		"appliesTo": "both", "badDayVersion": "One breath", "badDayXp": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[scoring.Habit](t, rec)
	assert.Equal(t, 12, created.SortOrder)
	assert.True(t, created.Active)

	rec = do(t, r, http.MethodPut, "/api/habits/"+created.ID, map[string]any{
		"name": "Meditate longer", "xp": 25, "category": "health", "timeOfDay": "evening",
		"appliesTo": "weekend", "badDayXp": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, decodeBody[scoring.Habit](t, rec).XP)

	rec = do(t, r, http.MethodPost, "/api/habits/"+created.ID+"/disable", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[scoring.Habit](t, rec).Active)

	rec = do(t, r, http.MethodPost, "/api/habits/"+created.ID+"/enable", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[scoring.Habit](t, rec).Active)

	rec = do(t, r, http.MethodPost, "/api/habits/reorder", api.ReorderRequest{IDs: []string{created.ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	habits := decodeBody[[]scoring.Habit](t, rec)
	assert.Equal(t, 1, scoring.FindHabit(habits, created.ID).SortOrder)
}

func TestViews(t *testing.T) {
	r, _ := newRouter(t)
	do(t, r, http.MethodPost, "/api/days/2024-01-15/habits/h3/toggle", nil)

	rec := do(t, r, http.MethodGet, "/api/weeks/2024-01-17", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	week := decodeBody[[]scoring.DaySummary](t, rec)
	require.Len(t, week, 7)
	assert.Equal(t, 50, week[0].TotalXPEarned)

	rec = do(t, r, http.MethodGet, "/api/months/2024-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	month := decodeBody[tracker.MonthView](t, rec)
	assert.Len(t, month.Summaries, 31)
	assert.Equal(t, 15, month.Stats.DaysCounted)

	rec = do(t, r, http.MethodGet, "/api/streaks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	streaks := decodeBody[api.StreaksDTO](t, rec)
	assert.Equal(t, "2024-01-15", streaks.Today)
	assert.Equal(t, 7, streaks.NextMilestone)

	rec = do(t, r, http.MethodGet, "/api/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decodeBody[api.ProgressDTO](t, rec)
	assert.Equal(t, 50, progress.TotalXP)
	assert.Equal(t, "Operator", progress.Level.Title)
	assert.Equal(t, 50, progress.Month.XPEarned)
}

func TestExportImportRoundTrip(t *testing.T) {
	r, _ := newRouter(t)
	do(t, r, http.MethodPost, "/api/days/2024-01-15/habits/h2/toggle", nil)
	do(t, r, http.MethodPost, "/api/days/2024-01-14/habits/h9/toggle-mvd", nil)
	before := decodeBody[[]scoring.DaySummary](t, do(t, r, http.MethodGet, "/api/weeks/2024-01-14", nil))

	// GIVEN: an export
	rec := do(t, r, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "keystone-habits-backup-2024-01-15.json")
	exported := rec.Body.Bytes()

	// WHEN: wiping everything and importing it again
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/reset", nil).Code)
	rec = do(t, r, http.MethodPost, "/api/import", exported)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN
	result := decodeBody[api.ImportResultDTO](t, rec)
	assert.Equal(t, 11, result.Habits)
	assert.Equal(t, 2, result.Days)
	after := decodeBody[[]scoring.DaySummary](t, do(t, r, http.MethodGet, "/api/weeks/2024-01-14", nil))
	assert.Equal(t, before, after)
}

func TestLoadScenario(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]api.ScenarioDTO](t, rec), 4)

	rec = do(t, r, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "perfect-week"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	current := decodeBody[api.ScenarioDTO](t, do(t, r, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "perfect-week", current.ID)

	streaks := decodeBody[api.StreaksDTO](t, do(t, r, http.MethodGet, "/api/streaks", nil))
	assert.Equal(t, 7, streaks.PerfectStreak)

	// Reset forgets the scenario
	do(t, r, http.MethodPost, "/api/reset", nil)
	rec = do(t, r, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "null\n", rec.Body.String())
}
