/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures that are specific to the HTTP contract. Domain
  values that already carry camelCase JSON tags (scoring.Habit,
  scoring.DaySummary, tracker.DayView, progression.Progress, ...) are
  returned as they are.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request bodies carry validator struct tags and are checked by decode().
  Habit bodies decode straight into catalog.Spec, which validates itself.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/go-playground/validator/v10"

	"github.com/keystone/habit-engine/progression"
	"github.com/keystone/habit-engine/scoring"
)

var validate = validator.New()

// ReorderRequest lists habit ids in their new display order.
type ReorderRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId" validate:"required"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StreaksDTO is the streak snapshot plus the milestone ladder.
type StreaksDTO struct {
	scoring.StreakSnapshot
	Today         string `json:"today"`
	NextMilestone int    `json:"nextMilestone,omitempty"`
}

// ProgressDTO is level progress plus the current month's stats.
type ProgressDTO struct {
	progression.Progress
	Month scoring.MonthStats `json:"month"`
}

// ImportResultDTO summarizes an accepted import.
type ImportResultDTO struct {
	Version int `json:"version"`
	Habits  int `json:"habits"`
	Days    int `json:"days"`
}

// StatusDTO is the body of endpoints without a richer result.
type StatusDTO struct {
	Status string `json:"status"`
	Today  string `json:"today,omitempty"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func nextMilestone(current int) int {
	for _, m := range progression.StreakMilestones {
		if current < m {
			return m
		}
	}
	return 0
}
