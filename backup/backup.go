/*
Package backup exports and imports the whole tracker state as one JSON
document.

DOCUMENT FORMAT (camelCase keys):
  {
    "version": 2,
    "habits": [ ...scoring.Habit... ],
    "dailyLogs": { "2024-01-15": [ ...scoring.LogEntry... ] },
    "exportedAt": "2024-01-15T21:04:05Z"
  }

VERSIONS:
  1  Habits carry no specificWeekdays; the weekly Friday and Sunday reviews
     were recognized by their ids (h10, h11).
  2  Weekday restrictions are explicit on the habit.

Import migrates version 1 documents forward and rejects anything newer than
CurrentVersion. A document either imports completely or not at all; nothing
here touches storage.
*/
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/catalog"
	"github.com/keystone/habit-engine/logger"
	"github.com/keystone/habit-engine/scoring"
)

// CurrentVersion is the document version written by Export.
const CurrentVersion = 2

// ErrInvalidBackup is returned for documents that cannot be imported.
var ErrInvalidBackup = errors.New("invalid backup")

var validate = validator.New()

// Document is a full export of the catalog and log map.
type Document struct {
	Version    int               `json:"version"`
	Habits     []scoring.Habit   `json:"habits"`
	DailyLogs  scoring.DailyLogs `json:"dailyLogs"`
	ExportedAt time.Time         `json:"exportedAt"`
}

// Export builds a current-version document.
func Export(habits []scoring.Habit, logs scoring.DailyLogs, now time.Time) Document {
	if habits == nil {
		habits = []scoring.Habit{}
	}
	if logs == nil {
		logs = scoring.DailyLogs{}
	}
	return Document{
		Version:    CurrentVersion,
		Habits:     habits,
		DailyLogs:  logs,
		ExportedAt: now.UTC(),
	}
}

// Marshal encodes a document as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return data, nil
}

// Import decodes, validates and migrates a document.
func Import(data []byte) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: invalid JSON: %v", ErrInvalidBackup, err)
	}
	if isAbsent(raw["habits"]) || isAbsent(raw["dailyLogs"]) {
		return Document{}, fmt.Errorf("%w: missing habits or dailyLogs", ErrInvalidBackup)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw["habits"]), []byte("[")) {
		return Document{}, fmt.Errorf("%w: habits must be an array", ErrInvalidBackup)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	switch {
	case doc.Version > CurrentVersion:
		return Document{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidBackup, doc.Version)
	case doc.Version < CurrentVersion:
		// Documents without a version predate versioning and share v1's shape.
		logger.Info("migrating backup", "from", doc.Version, "to", CurrentVersion)
		migrateV1(doc.Habits)
		doc.Version = CurrentVersion
	}

	if err := checkHabits(doc.Habits); err != nil {
		return Document{}, err
	}
	if err := checkLogs(doc.DailyLogs); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// migrateV1 gives the legacy weekly habits their explicit weekday.
func migrateV1(habits []scoring.Habit) {
	for i := range habits {
		h := &habits[i]
		if len(h.SpecificWeekdays) > 0 {
			continue
		}
		switch h.ID {
		case catalog.LegacyFridayHabitID:
			h.SpecificWeekdays = []time.Weekday{time.Friday}
		case catalog.LegacySundayHabitID:
			h.SpecificWeekdays = []time.Weekday{time.Sunday}
		}
	}
}

func checkHabits(habits []scoring.Habit) error {
	seen := make(map[string]bool, len(habits))
	for i, h := range habits {
		if h.ID == "" || seen[h.ID] {
			return fmt.Errorf("%w: habit %d has a missing or duplicate id %q", ErrInvalidBackup, i, h.ID)
		}
		seen[h.ID] = true
	}
	for _, h := range habits {
		if err := catalog.SpecOf(h).Validate(); err != nil {
			return fmt.Errorf("%w: habit %s: %w", ErrInvalidBackup, h.ID, err)
		}
	}
	return nil
}

// entryRules are the constraints every imported log entry must meet.
type entryRules struct {
	ID       string `validate:"required"`
	HabitID  string `validate:"required"`
	XPEarned int    `validate:"gte=0"`
}

func checkLogs(logs scoring.DailyLogs) error {
	if _, err := logs.Dates(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}
	for key, entries := range logs {
		pairs := make(map[string]bool, len(entries))
		for _, e := range entries {
			if err := validate.Struct(entryRules{ID: e.ID, HabitID: e.HabitID, XPEarned: e.XPEarned}); err != nil {
				return fmt.Errorf("%w: log entry on %s: %v", ErrInvalidBackup, key, err)
			}
			if e.Date != key {
				return fmt.Errorf("%w: log entry %s dated %q is filed under %s", ErrInvalidBackup, e.ID, e.Date, key)
			}
			if pairs[e.HabitID] {
				return fmt.Errorf("%w: habit %s is logged twice on %s", ErrInvalidBackup, e.HabitID, key)
			}
			pairs[e.HabitID] = true
		}
	}
	return nil
}

func isAbsent(v json.RawMessage) bool {
	return len(v) == 0 || string(bytes.TrimSpace(v)) == "null"
}

// =============================================================================
// FILES
// =============================================================================

// FileName is the name of the backup written on the given day.
func FileName(today calendar.Date) string {
	return "keystone-habits-backup-" + today.String() + ".json"
}

// WriteFile writes an encoded document into dir and returns its path.
func WriteFile(dir string, data []byte, today calendar.Date) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	path := filepath.Join(dir, FileName(today))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return path, nil
}

// ReadFile reads and imports the document at path.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read backup: %w", err)
	}
	return Import(data)
}
