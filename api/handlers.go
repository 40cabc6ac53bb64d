/*
handlers.go - HTTP API handlers for the habit tracker

PURPOSE:
  Exposes the tracker service via REST API. Handles HTTP request/response
  and JSON serialization, and delegates everything else to tracker.Service.

ENDPOINTS:
  Habits:
    GET    /api/habits                         Catalog, by sort order
    POST   /api/habits                         Create habit
    PUT    /api/habits/{id}                    Update habit
    POST   /api/habits/{id}/disable            Disable habit (never deleted)
    POST   /api/habits/{id}/enable             Re-enable habit
    POST   /api/habits/reorder                 Reorder by id list

  Days:
    GET    /api/days/{date}                    Applicable habits, logs, summary
    POST   /api/days/{date}/habits/{id}/toggle      Full toggle
    POST   /api/days/{date}/habits/{id}/toggle-mvd  Reduced (bad-day) toggle

  Views:
    GET    /api/weeks/{date}                   Monday..Sunday summaries
    GET    /api/months/{date}                  Month grid + stats
    GET    /api/streaks                        Streak snapshot
    GET    /api/progress                       Total XP, level, month stats

  Data:
    GET    /api/export                         Backup document
    POST   /api/import                         Replace everything from a backup
    POST   /api/reset                          Clear and re-seed

{date} is YYYY-MM-DD or "today".

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid date, invalid habit, invalid backup, bad request body
  - 404: Unknown habit
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The tracker is a single-user, local-first tool.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/keystone/habit-engine/backup"
	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/catalog"
	"github.com/keystone/habit-engine/logger"
	"github.com/keystone/habit-engine/scoring"
	"github.com/keystone/habit-engine/tracker"
)

// maxImportBytes bounds the size of an uploaded backup.
const maxImportBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *tracker.Service

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over the given service.
func NewHandler(svc *tracker.Service) *Handler {
	return &Handler{Service: svc}
}

// =============================================================================
// HABIT HANDLERS
// =============================================================================

// ListHabits returns the catalog, including disabled habits.
func (h *Handler) ListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := h.Service.Habits(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to list habits", err)
		return
	}
	if habits == nil {
		habits = []scoring.Habit{}
	}
	writeJSON(w, http.StatusOK, habits)
}

// CreateHabit adds a habit to the catalog.
func (h *Handler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var spec catalog.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	habit, err := h.Service.AddHabit(r.Context(), spec)
	if err != nil {
		writeServiceError(w, "Failed to create habit", err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

// UpdateHabit replaces the editable fields of a habit.
func (h *Handler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	var spec catalog.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	habit, err := h.Service.UpdateHabit(r.Context(), chi.URLParam(r, "id"), spec)
	if err != nil {
		writeServiceError(w, "Failed to update habit", err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// DisableHabit marks a habit inactive. Its history is kept.
func (h *Handler) DisableHabit(w http.ResponseWriter, r *http.Request) {
	habit, err := h.Service.DisableHabit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to disable habit", err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// EnableHabit marks a habit active again.
func (h *Handler) EnableHabit(w http.ResponseWriter, r *http.Request) {
	habit, err := h.Service.EnableHabit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to enable habit", err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// ReorderHabits assigns sort order from the posted id list.
func (h *Handler) ReorderHabits(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decode(w, r, &req) {
		return
	}

	habits, err := h.Service.ReorderHabits(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, "Failed to reorder habits", err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

// =============================================================================
// DAY HANDLERS
// =============================================================================

// GetDay returns the checklist for one day.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	view, err := h.Service.Day(r.Context(), date)
	if err != nil {
		writeServiceError(w, "Failed to load day", err)
		return
	}
	if view.Logs == nil {
		view.Logs = []scoring.LogEntry{}
	}
	writeJSON(w, http.StatusOK, view)
}

// ToggleHabit flips a habit between not done and done in full.
func (h *Handler) ToggleHabit(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, tracker.ModeFull)
}

// ToggleHabitMVD flips a habit into, or between, its bad-day version.
func (h *Handler) ToggleHabitMVD(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, tracker.ModeReduced)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, mode tracker.Mode) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	result, err := h.Service.Toggle(r.Context(), date, chi.URLParam(r, "id"), mode)
	if err != nil {
		writeServiceError(w, "Failed to toggle habit", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// VIEW HANDLERS
// =============================================================================

// GetWeek returns the seven summaries of the ISO week containing {date}.
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	week, err := h.Service.Week(r.Context(), date)
	if err != nil {
		writeServiceError(w, "Failed to load week", err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

// GetMonth returns the month containing {date}.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	month, err := h.Service.Month(r.Context(), date)
	if err != nil {
		writeServiceError(w, "Failed to load month", err)
		return
	}
	writeJSON(w, http.StatusOK, month)
}

// GetStreaks returns the streak snapshot as of today.
func (h *Handler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.Streaks(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to compute streaks", err)
		return
	}
	writeJSON(w, http.StatusOK, StreaksDTO{
		StreakSnapshot: snap,
		Today:          h.Service.Today().String(),
		NextMilestone:  nextMilestone(snap.CurrentStreak),
	})
}

// GetProgress returns total XP, level progress and this month's stats.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	progress, err := h.Service.Progress(ctx)
	if err != nil {
		writeServiceError(w, "Failed to compute progress", err)
		return
	}
	month, err := h.Service.MonthlyStats(ctx)
	if err != nil {
		writeServiceError(w, "Failed to compute monthly stats", err)
		return
	}
	writeJSON(w, http.StatusOK, ProgressDTO{Progress: progress, Month: month})
}

// =============================================================================
// DATA HANDLERS
// =============================================================================

// Export returns the whole state as a downloadable backup document.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	habits, logs, err := h.Service.Data(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to export data", err)
		return
	}

	data, err := backup.Marshal(backup.Export(habits, logs, h.Service.Now()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export data", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, backup.FileName(h.Service.Today())))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import replaces everything with the posted backup document.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	doc, err := backup.Import(data)
	if err != nil {
		writeServiceError(w, "Invalid backup", err)
		return
	}
	if err := h.Service.Replace(r.Context(), doc.Habits, doc.DailyLogs); err != nil {
		writeServiceError(w, "Failed to import data", err)
		return
	}
	h.setScenario("")

	writeJSON(w, http.StatusOK, ImportResultDTO{
		Version: doc.Version,
		Habits:  len(doc.Habits),
		Days:    len(doc.DailyLogs),
	})
}

// ResetDatabase clears all data and re-seeds the default catalog.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.setScenario("")

	writeJSON(w, http.StatusOK, StatusDTO{Status: "ok", Today: h.Service.Today().String()})
}

// Health reports liveness and the server's idea of today.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusDTO{Status: "ok", Today: h.Service.Today().String()})
}

// =============================================================================
// HELPERS
// =============================================================================

// dateParam parses the {date} URL parameter, writing a 400 on failure.
func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request) (calendar.Date, bool) {
	raw := chi.URLParam(r, "date")
	if raw == "today" {
		return h.Service.Today(), true
	}
	date, err := calendar.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return calendar.Date{}, false
	}
	return date, true
}

// decode reads and validates a JSON body, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			resp.Fields = verr.Fields
		}
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(message, "err", err)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrHabitNotFound):
		return http.StatusNotFound
	case scoring.IsInvalidInput(err),
		errors.Is(err, catalog.ErrInvalidHabit),
		errors.Is(err, backup.ErrInvalidBackup):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
