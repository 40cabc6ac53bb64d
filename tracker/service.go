package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/catalog"
	"github.com/keystone/habit-engine/logger"
	"github.com/keystone/habit-engine/progression"
	"github.com/keystone/habit-engine/scoring"
)

// =============================================================================
// SERVICE - facade used by the API and the CLI
// =============================================================================

// Service wires a Store to the scoring engine. Mutations are serialized so
// read-modify-write toggles never interleave.
type Service struct {
	store  Store
	engine *scoring.Engine
	cache  *SnapshotCache
	now    func() time.Time
	loc    *time.Location

	mu  sync.Mutex
	rev Revision
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone used to derive "today" from the clock.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithCache shares a snapshot cache.
func WithCache(c *SnapshotCache) Option {
	return func(s *Service) { s.cache = c }
}

// NewService creates a service. A nil engine means scoring.DefaultEngine.
func NewService(store Store, engine *scoring.Engine, opts ...Option) *Service {
	if engine == nil {
		engine = scoring.DefaultEngine()
	}
	s := &Service{
		store:  store,
		engine: engine,
		cache:  NewSnapshotCache(),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the scoring engine in use.
func (s *Service) Engine() *scoring.Engine { return s.engine }

// Cache returns the snapshot cache.
func (s *Service) Cache() *SnapshotCache { return s.cache }

// Now returns the current instant from the service clock.
func (s *Service) Now() time.Time { return s.now() }

// Today returns the current calendar day in the service location.
func (s *Service) Today() calendar.Date {
	return calendar.FromTime(s.now().In(s.loc))
}

// Revision returns the current catalog and log revision.
func (s *Service) Revision() Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// Invalidate drops memoized snapshots. Called on day rollover and after
// external writes to the store.
func (s *Service) Invalidate() {
	s.cache.Invalidate()
}

func (s *Service) bumpCatalog() { s.rev.Catalog++ }
func (s *Service) bumpLogs()    { s.rev.Logs++ }

// =============================================================================
// SEEDING & RESET
// =============================================================================

// EnsureSeeded writes the default catalog on first run. It reports whether
// seeding happened.
func (s *Service) EnsureSeeded(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seedLocked(ctx)
}

func (s *Service) seedLocked(ctx context.Context) (bool, error) {
	seeded, err := s.store.Seeded(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check seed marker: %w", err)
	}
	if seeded {
		return false, nil
	}

	habits, err := catalog.Defaults(s.now())
	if err != nil {
		return false, err
	}
	if err := s.store.SaveHabits(ctx, habits); err != nil {
		return false, fmt.Errorf("failed to seed habits: %w", err)
	}
	if err := s.store.MarkSeeded(ctx); err != nil {
		return false, fmt.Errorf("failed to mark seeded: %w", err)
	}
	s.bumpCatalog()
	logger.Info("seeded default habits", "count", len(habits))
	return true, nil
}

// Reset deletes all data and writes the default catalog again.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	s.bumpCatalog()
	s.bumpLogs()
	s.cache.Invalidate()
	logger.Warn("all habit data reset")

	_, err := s.seedLocked(ctx)
	return err
}

// =============================================================================
// CATALOG
// =============================================================================

// Habits returns the catalog ordered by sort order.
func (s *Service) Habits(ctx context.Context) ([]scoring.Habit, error) {
	habits, err := s.store.Habits(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Sorted(habits), nil
}

// AddHabit validates and appends a habit.
func (s *Service) AddHabit(ctx context.Context, spec catalog.Spec) (scoring.Habit, error) {
	return s.editCatalog(ctx, func(habits []scoring.Habit) ([]scoring.Habit, scoring.Habit, error) {
		return catalog.Add(habits, spec, s.now())
	})
}

// UpdateHabit replaces the editable fields of a habit.
func (s *Service) UpdateHabit(ctx context.Context, id string, spec catalog.Spec) (scoring.Habit, error) {
	return s.editCatalog(ctx, func(habits []scoring.Habit) ([]scoring.Habit, scoring.Habit, error) {
		return catalog.Update(habits, id, spec)
	})
}

// DisableHabit marks a habit inactive.
func (s *Service) DisableHabit(ctx context.Context, id string) (scoring.Habit, error) {
	return s.editCatalog(ctx, func(habits []scoring.Habit) ([]scoring.Habit, scoring.Habit, error) {
		return catalog.Disable(habits, id)
	})
}

// EnableHabit marks a habit active.
func (s *Service) EnableHabit(ctx context.Context, id string) (scoring.Habit, error) {
	return s.editCatalog(ctx, func(habits []scoring.Habit) ([]scoring.Habit, scoring.Habit, error) {
		return catalog.Enable(habits, id)
	})
}

// ReorderHabits assigns sort order from the given id sequence.
func (s *Service) ReorderHabits(ctx context.Context, orderedIDs []string) ([]scoring.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits, err := s.store.Habits(ctx)
	if err != nil {
		return nil, err
	}
	updated := catalog.Reorder(habits, orderedIDs)
	if err := s.store.SaveHabits(ctx, updated); err != nil {
		return nil, err
	}
	s.bumpCatalog()
	return catalog.Sorted(updated), nil
}

func (s *Service) editCatalog(ctx context.Context, fn func([]scoring.Habit) ([]scoring.Habit, scoring.Habit, error)) (scoring.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits, err := s.store.Habits(ctx)
	if err != nil {
		return scoring.Habit{}, err
	}
	updated, h, err := fn(habits)
	if err != nil {
		return scoring.Habit{}, err
	}
	if err := s.store.SaveHabits(ctx, updated); err != nil {
		return scoring.Habit{}, err
	}
	s.bumpCatalog()
	logger.Debug("catalog updated", "habit", h.ID, "active", h.Active)
	return h, nil
}

// =============================================================================
// DAY VIEW & TOGGLES
// =============================================================================

// DayView is everything a checklist needs for one day.
type DayView struct {
	Date    calendar.Date      `json:"date"`
	Habits  []scoring.Habit    `json:"habits"`
	Logs    []scoring.LogEntry `json:"logs"`
	Summary scoring.DaySummary `json:"summary"`
}

// Day returns the applicable habits, recorded entries and summary of a day.
func (s *Service) Day(ctx context.Context, date calendar.Date) (DayView, error) {
	habits, err := s.store.Habits(ctx)
	if err != nil {
		return DayView{}, err
	}
	entries, err := s.store.LogsForDate(ctx, date)
	if err != nil {
		return DayView{}, err
	}
	return DayView{
		Date:    date,
		Habits:  scoring.ApplicableHabits(habits, date),
		Logs:    entries,
		Summary: s.engine.DaySummary(habits, entries, date),
	}, nil
}

// ToggleResult reports the toggled entry and what changed because of it.
type ToggleResult struct {
	Entry   scoring.LogEntry       `json:"entry"`
	Summary scoring.DaySummary     `json:"summary"`
	Streaks scoring.StreakSnapshot `json:"streaks"`
	TotalXP int                    `json:"totalXp"`

	// LevelUp is set when this toggle crossed a level threshold.
	LevelUp *progression.Level `json:"levelUp,omitempty"`
	// Milestone is the current-streak milestone crossed, or 0.
	Milestone int `json:"streakMilestone,omitempty"`
}

// Toggle applies a full or reduced toggle to (date, habitID).
func (s *Service) Toggle(ctx context.Context, date calendar.Date, habitID string, mode Mode) (ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits, err := s.store.Habits(ctx)
	if err != nil {
		return ToggleResult{}, err
	}
	logs, err := s.store.Logs(ctx)
	if err != nil {
		return ToggleResult{}, err
	}

	today := s.Today()
	before, err := s.streaksLocked(habits, logs, today)
	if err != nil {
		return ToggleResult{}, err
	}
	xpBefore := scoring.TotalXP(logs)

	updated, entry, err := ApplyToggle(habits, logs, date, habitID, mode, s.now())
	if err != nil {
		return ToggleResult{}, err
	}
	if err := s.store.SaveLog(ctx, entry); err != nil {
		return ToggleResult{}, fmt.Errorf("failed to save log entry: %w", err)
	}
	s.bumpLogs()

	after, err := s.streaksLocked(habits, updated, today)
	if err != nil {
		return ToggleResult{}, err
	}

	result := ToggleResult{
		Entry:   entry,
		Summary: s.engine.DaySummary(habits, updated.For(date), date),
		Streaks: after,
		TotalXP: scoring.TotalXP(updated),
	}
	if lvl, ok := progression.LevelUp(xpBefore, result.TotalXP); ok {
		result.LevelUp = &lvl
		logger.Info("level up", "level", lvl.Number, "title", lvl.Title)
	}
	if m, ok := progression.CrossedMilestone(before.CurrentStreak, after.CurrentStreak); ok {
		result.Milestone = m
		logger.Info("streak milestone", "days", m)
	}

	logger.Debug("habit toggled",
		"date", date, "habit", habitID, "mode", mode,
		"completed", entry.Completed, "xp", entry.XPEarned)
	return result, nil
}

// =============================================================================
// DERIVED METRICS
// =============================================================================

// Streaks returns the streak snapshot as of today, memoized per revision.
func (s *Service) Streaks(ctx context.Context) (scoring.StreakSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.Today()
	if snap, ok := s.cache.Get(s.rev, today); ok {
		return snap, nil
	}

	habits, logs, err := s.Data(ctx)
	if err != nil {
		return scoring.StreakSnapshot{}, err
	}
	return s.streaksLocked(habits, logs, today)
}

func (s *Service) streaksLocked(habits []scoring.Habit, logs scoring.DailyLogs, today calendar.Date) (scoring.StreakSnapshot, error) {
	if snap, ok := s.cache.Get(s.rev, today); ok {
		return snap, nil
	}
	snap, err := s.engine.Streaks(habits, logs, today)
	if err != nil {
		return scoring.StreakSnapshot{}, err
	}
	s.cache.Put(s.rev, today, snap)
	return snap, nil
}

// Progress returns total XP and level progress.
func (s *Service) Progress(ctx context.Context) (progression.Progress, error) {
	logs, err := s.store.Logs(ctx)
	if err != nil {
		return progression.Progress{}, err
	}
	return progression.ProgressFor(scoring.TotalXP(logs)), nil
}

// Week returns Monday..Sunday summaries for the ISO week containing date.
func (s *Service) Week(ctx context.Context, date calendar.Date) ([]scoring.DaySummary, error) {
	return s.summaries(ctx, calendar.WeekOf(date))
}

// MonthView is the month grid plus aggregate stats through today.
type MonthView struct {
	Month     string               `json:"month"`
	Summaries []scoring.DaySummary `json:"summaries"`
	Stats     scoring.MonthStats   `json:"stats"`
}

// Month returns the calendar month containing date.
func (s *Service) Month(ctx context.Context, date calendar.Date) (MonthView, error) {
	habits, logs, err := s.Data(ctx)
	if err != nil {
		return MonthView{}, err
	}
	month := calendar.MonthOf(date)
	stats := s.engine.MonthStatsFor(habits, logs, month, s.Today())
	return MonthView{
		Month:     stats.Month,
		Summaries: s.engine.Summaries(habits, logs, month),
		Stats:     stats,
	}, nil
}

// MonthlyStats aggregates the current month through today.
func (s *Service) MonthlyStats(ctx context.Context) (scoring.MonthStats, error) {
	habits, logs, err := s.Data(ctx)
	if err != nil {
		return scoring.MonthStats{}, err
	}
	return s.engine.MonthlyStats(habits, logs, s.Today()), nil
}

func (s *Service) summaries(ctx context.Context, period calendar.Period) ([]scoring.DaySummary, error) {
	habits, logs, err := s.Data(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Summaries(habits, logs, period), nil
}

// =============================================================================
// BULK DATA
// =============================================================================

// Data returns the full catalog and log map.
func (s *Service) Data(ctx context.Context) ([]scoring.Habit, scoring.DailyLogs, error) {
	habits, err := s.store.Habits(ctx)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.store.Logs(ctx)
	if err != nil {
		return nil, nil, err
	}
	return habits, logs, nil
}

// Replace atomically swaps in a new catalog and log map (import).
func (s *Service) Replace(ctx context.Context, habits []scoring.Habit, logs scoring.DailyLogs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ReplaceAll(ctx, habits, logs); err != nil {
		return fmt.Errorf("failed to replace data: %w", err)
	}
	if err := s.store.MarkSeeded(ctx); err != nil {
		return err
	}
	s.bumpCatalog()
	s.bumpLogs()
	s.cache.Invalidate()
	logger.Info("data replaced", "habits", len(habits), "days", len(logs))
	return nil
}
