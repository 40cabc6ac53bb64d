/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built histories that exercise the streak engine. Each
	scenario resets the tracker to the default catalog, then replays toggles
	over the days leading up to today.

AVAILABLE SCENARIOS:

	perfect-week:   Every applicable habit done for the last seven days
	grace-week:     Two weeks of perfect days with one missed day per ISO week
	broken-streak:  A long run, four empty days, then a short new run
	mvd-month:      Thirty days that each just clear the MVD threshold

HOW SCENARIOS WORK:
 1. Reset (clear all data, re-seed the default catalog)
 2. Build the log map with tracker.ApplyToggle, day by day
 3. Replace the stored logs in one transaction

USAGE VIA API:

	POST /api/scenarios/load
	{"scenarioId": "grace-week"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - tracker/toggle.go: ApplyToggle
*/
package api

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/logger"
	"github.com/keystone/habit-engine/scoring"
	"github.com/keystone/habit-engine/tracker"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "perfect-week",
		Name:        "Perfect Week",
		Description: "Every applicable habit completed for the last seven days",
	},
	{
		ID:          "grace-week",
		Name:        "Grace Week",
		Description: "Two weeks of perfect days, one missed day per week absorbed by grace",
	},
	{
		ID:          "broken-streak",
		Name:        "Broken Streak",
		Description: "A two-week run broken by four empty days, then a fresh start",
	},
	{
		ID:          "mvd-month",
		Name:        "MVD Month",
		Description: "Thirty days that each just reach the minimum viable day",
	},
}

var scenarioBuilders = map[string]func(b *historyBuilder, today calendar.Date) error{
	"perfect-week":  buildPerfectWeek,
	"grace-week":    buildGraceWeek,
	"broken-streak": buildBrokenStreak,
	"mvd-month":     buildMVDMonth,
}

// Scenarios lists the available demo scenarios.
func Scenarios() []ScenarioDTO {
	return append([]ScenarioDTO(nil), scenarios...)
}

// BuildScenario returns the log map of a scenario ending on today.
func BuildScenario(id string, habits []scoring.Habit, engine *scoring.Engine, today calendar.Date) (scoring.DailyLogs, error) {
	build, ok := scenarioBuilders[id]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", id)
	}
	b := &historyBuilder{habits: habits, engine: engine, logs: scoring.DailyLogs{}}
	if err := build(b, today); err != nil {
		return nil, fmt.Errorf("failed to build scenario %s: %w", id, err)
	}
	return b.logs, nil
}

func buildPerfectWeek(b *historyBuilder, today calendar.Date) error {
	for d := today.AddDays(-6); d.BeforeOrEqual(today); d = d.AddDays(1) {
		if err := b.complete(d); err != nil {
			return err
		}
	}
	return nil
}

func buildGraceWeek(b *historyBuilder, today calendar.Date) error {
	for d := today.AddDays(-13); d.BeforeOrEqual(today); d = d.AddDays(1) {
		if d.Weekday() == time.Wednesday && !d.Equal(today) {
			continue
		}
		if err := b.complete(d); err != nil {
			return err
		}
	}
	return nil
}

func buildBrokenStreak(b *historyBuilder, today calendar.Date) error {
	for d := today.AddDays(-21); d.BeforeOrEqual(today); d = d.AddDays(1) {
		if d.After(today.AddDays(-8)) && d.Before(today.AddDays(-3)) {
			continue
		}
		if err := b.complete(d); err != nil {
			return err
		}
	}
	return nil
}

func buildMVDMonth(b *historyBuilder, today calendar.Date) error {
	for d := today.AddDays(-29); d.BeforeOrEqual(today); d = d.AddDays(1) {
		if err := b.minimumViable(d); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HISTORY BUILDER
// =============================================================================

type historyBuilder struct {
	habits []scoring.Habit
	engine *scoring.Engine
	logs   scoring.DailyLogs
}

// at is the completion timestamp used for every toggle on d.
func at(d calendar.Date) time.Time {
	return d.Time().Add(20 * time.Hour)
}

func (b *historyBuilder) toggle(d calendar.Date, habitID string, mode tracker.Mode) error {
	logs, _, err := tracker.ApplyToggle(b.habits, b.logs, d, habitID, mode, at(d))
	if err != nil {
		return err
	}
	b.logs = logs
	return nil
}

func (b *historyBuilder) complete(d calendar.Date) error {
	for _, h := range scoring.ApplicableHabits(b.habits, d) {
		if err := b.toggle(d, h.ID, tracker.ModeFull); err != nil {
			return err
		}
	}
	return nil
}

// minimumViable completes the cheapest habits first until the day reaches
// the MVD threshold.
func (b *historyBuilder) minimumViable(d calendar.Date) error {
	applicable := scoring.ApplicableHabits(b.habits, d)
	sort.SliceStable(applicable, func(i, j int) bool { return applicable[i].XP < applicable[j].XP })

	for _, h := range applicable {
		if b.engine.DaySummary(b.habits, b.logs.For(d), d).StreakDay {
			return nil
		}
		if err := b.toggle(d, h.ID, tracker.ModeFull); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns all available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.scenario()
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the tracker and loads a predefined history.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}
	if _, ok := scenarioBuilders[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.Service.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.setScenario("")

	habits, _, err := h.Service.Data(ctx)
	if err != nil {
		writeServiceError(w, "Failed to load scenario", err)
		return
	}
	logs, err := BuildScenario(req.ScenarioID, habits, h.Service.Engine(), h.Service.Today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	if err := h.Service.Replace(ctx, habits, logs); err != nil {
		writeServiceError(w, "Failed to load scenario", err)
		return
	}

	h.setScenario(req.ScenarioID)
	logger.Info("scenario loaded", "scenario", req.ScenarioID, "days", len(logs))
	writeJSON(w, http.StatusOK, StatusDTO{Status: "ok", Today: h.Service.Today().String()})
}

func (h *Handler) scenario() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentScenario
}

func (h *Handler) setScenario(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = id
}
