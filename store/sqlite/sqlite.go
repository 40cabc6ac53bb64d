/*
Package sqlite provides a SQLite-backed tracker.Store.

PURPOSE:
  Persists the habit catalog and the daily log map in a single database
  file. This is the store used by the HTTP server and the CLI.

KEY TABLES:
  habits:       The catalog; position preserves insertion order
  log_entries:  One row per (date, habit_id), enforced by a UNIQUE index
  meta:         Key/value markers (schema version, seeded flag)

UPSERTS:
  A toggle rewrites the entry for its (date, habit_id) in place with
  INSERT ... ON CONFLICT DO UPDATE, so entry order within a day is the
  order habits were first toggled.

ATOMICITY:
  SaveHabits and ReplaceAll run inside a database transaction. An import
  either replaces everything or nothing.

WAL MODE:
  The database is opened with WAL (Write-Ahead Logging) so the CLI can read
  while the server writes.

USAGE:
  store, err := sqlite.New("./data/keystone.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := tracker.NewService(store, engine)

SEE ALSO:
  - tracker/store.go:    Interface definition
  - store/memory:        In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/scoring"
	"github.com/keystone/habit-engine/tracker"
)

// SchemaVersion is recorded in the meta table on migrate.
const SchemaVersion = 1

const (
	metaSchemaVersion = "schema_version"
	metaSeeded        = "seeded"
)

// ErrDuplicateLogID is returned when a log entry id is already used by a
// different (date, habit_id) pair.
var ErrDuplicateLogID = errors.New("duplicate log entry id")

// Store implements tracker.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ tracker.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS habits (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		xp INTEGER NOT NULL,
		category TEXT NOT NULL,
		time_of_day TEXT NOT NULL,
		applies_to TEXT NOT NULL,
		specific_weekdays TEXT,
		bad_day_version TEXT NOT NULL DEFAULT '',
		bad_day_xp INTEGER NOT NULL DEFAULT 0,
		sort_order INTEGER NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	-- Entries may reference habits that were later removed by an import,
	-- so habit_id is deliberately not a foreign key.
	CREATE TABLE IF NOT EXISTS log_entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		date TEXT NOT NULL,
		habit_id TEXT NOT NULL,
		completed INTEGER NOT NULL,
		is_bad_day_version INTEGER NOT NULL,
		xp_earned INTEGER NOT NULL,
		completed_at TEXT,
		note TEXT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_log_entries_date_habit
		ON log_entries(date, habit_id);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	_, err := s.db.Exec(`INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)`,
		metaSchemaVersion, fmt.Sprint(SchemaVersion))
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// HABITS
// =============================================================================

// Habits returns the catalog in insertion order.
func (s *Store) Habits(ctx context.Context) ([]scoring.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, xp, category, time_of_day, applies_to,
		       specific_weekdays, bad_day_version, bad_day_xp, sort_order, active, created_at
		FROM habits ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	var habits []scoring.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// SaveHabits replaces the catalog atomically.
func (s *Store) SaveHabits(ctx context.Context, habits []scoring.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		return replaceHabits(ctx, tx, habits)
	})
}

func replaceHabits(ctx context.Context, db execer, habits []scoring.Habit) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM habits`); err != nil {
		return fmt.Errorf("failed to clear habits: %w", err)
	}
	for i, h := range habits {
		if err := insertHabit(ctx, db, i, h); err != nil {
			return err
		}
	}
	return nil
}

func insertHabit(ctx context.Context, db execer, position int, h scoring.Habit) error {
	var weekdays sql.NullString
	if len(h.SpecificWeekdays) > 0 {
		b, err := json.Marshal(h.SpecificWeekdays)
		if err != nil {
			return err
		}
		weekdays = sql.NullString{String: string(b), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO habits
		(id, position, name, description, xp, category, time_of_day, applies_to,
		 specific_weekdays, bad_day_version, bad_day_xp, sort_order, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		h.ID, position, h.Name, h.Description, h.XP,
		string(h.Category), string(h.TimeOfDay), string(h.AppliesTo),
		weekdays, h.BadDayVersion, h.BadDayXP, h.SortOrder, h.Active,
		h.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert habit %s: %w", h.ID, err)
	}
	return nil
}

func scanHabit(rows *sql.Rows) (scoring.Habit, error) {
	var (
		h                            scoring.Habit
		category, timeOfDay, applies string
		weekdays                     sql.NullString
		createdAt                    string
	)
	err := rows.Scan(&h.ID, &h.Name, &h.Description, &h.XP, &category, &timeOfDay, &applies,
		&weekdays, &h.BadDayVersion, &h.BadDayXP, &h.SortOrder, &h.Active, &createdAt)
	if err != nil {
		return h, fmt.Errorf("failed to scan habit: %w", err)
	}

	h.Category = scoring.Category(category)
	h.TimeOfDay = scoring.TimeOfDay(timeOfDay)
	h.AppliesTo = scoring.AppliesTo(applies)
	if weekdays.Valid {
		if err := json.Unmarshal([]byte(weekdays.String), &h.SpecificWeekdays); err != nil {
			return h, fmt.Errorf("habit %s: bad specific_weekdays: %w", h.ID, err)
		}
	}
	if h.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return h, fmt.Errorf("habit %s: bad created_at: %w", h.ID, err)
	}
	return h, nil
}

// =============================================================================
// LOG ENTRIES
// =============================================================================

const selectLogs = `
	SELECT id, date, habit_id, completed, is_bad_day_version, xp_earned, completed_at, note
	FROM log_entries
`

// Logs returns the full log map.
func (s *Store) Logs(ctx context.Context) (scoring.DailyLogs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.queryLogs(ctx, selectLogs+` ORDER BY date, seq`)
	if err != nil {
		return nil, err
	}

	logs := make(scoring.DailyLogs)
	for _, e := range entries {
		logs[e.Date] = append(logs[e.Date], e)
	}
	return logs, nil
}

// LogsForDate returns the entries recorded on one day.
func (s *Store) LogsForDate(ctx context.Context, date calendar.Date) ([]scoring.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryLogs(ctx, selectLogs+` WHERE date = ? ORDER BY seq`, date.String())
}

// SaveLog inserts or replaces the entry for (Date, HabitID).
func (s *Store) SaveLog(ctx context.Context, entry scoring.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertLog(ctx, s.db, entry)
}

func upsertLog(ctx context.Context, db execer, e scoring.LogEntry) error {
	var completedAt sql.NullString
	if e.CompletedAt != nil {
		completedAt = sql.NullString{String: e.CompletedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}
	var note sql.NullString
	if e.Note != nil {
		note = sql.NullString{String: *e.Note, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO log_entries
		(id, date, habit_id, completed, is_bad_day_version, xp_earned, completed_at, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, habit_id) DO UPDATE SET
			completed = excluded.completed,
			is_bad_day_version = excluded.is_bad_day_version,
			xp_earned = excluded.xp_earned,
			completed_at = excluded.completed_at,
			note = excluded.note
	`, e.ID, e.Date, e.HabitID, e.Completed, e.IsBadDayVersion, e.XPEarned, completedAt, note)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateLogID, e.ID)
		}
		return fmt.Errorf("failed to save log entry: %w", err)
	}
	return nil
}

func (s *Store) queryLogs(ctx context.Context, query string, args ...any) ([]scoring.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer rows.Close()

	var entries []scoring.LogEntry
	for rows.Next() {
		var (
			e           scoring.LogEntry
			completedAt sql.NullString
			note        sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Date, &e.HabitID, &e.Completed, &e.IsBadDayVersion,
			&e.XPEarned, &completedAt, &note); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		if completedAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, completedAt.String)
			if err != nil {
				return nil, fmt.Errorf("log entry %s: bad completed_at: %w", e.ID, err)
			}
			e.CompletedAt = &t
		}
		if note.Valid {
			n := note.String
			e.Note = &n
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// BULK OPERATIONS
// =============================================================================

// ReplaceAll swaps the catalog and log map in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, habits []scoring.Habit, logs scoring.DailyLogs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates, err := logs.Dates()
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := replaceHabits(ctx, tx, habits); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM log_entries`); err != nil {
			return fmt.Errorf("failed to clear log entries: %w", err)
		}
		for _, d := range dates {
			for _, e := range logs.For(d) {
				if err := upsertLog(ctx, tx, e); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Reset clears all data, including the seeded marker.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM log_entries`,
			`DELETE FROM habits`,
			`DELETE FROM meta WHERE key = '` + metaSeeded + `'`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// Seeded reports whether the first-run catalog was written.
func (s *Store) Seeded(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaSeeded).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// MarkSeeded records that the first-run catalog was written.
func (s *Store) MarkSeeded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, 'true') ON CONFLICT(key) DO UPDATE SET value = 'true'`,
		metaSeeded)
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
