/*
scheduler.go - Day rollover scheduler

PURPOSE:
  Streak snapshots are memoized per (revision, today). When the local
  calendar day changes nothing is written, so the scheduler polls the clock
  and, on a new day, drops the memoized snapshot, logs the new day's streaks
  and optionally writes a backup file.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Compares the service's "today" against the last day it saw
  - Stop is idempotent and waits for the goroutine to exit

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 minute)
  - Enabled: Whether scheduler is active (default: true)
  - BackupDir: Where to write a backup on rollover ("" disables)

USAGE:
  scheduler := NewRolloverScheduler(svc)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - tracker/cache.go: SnapshotCache
  - backup/backup.go: WriteFile
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/keystone/habit-engine/backup"
	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/logger"
	"github.com/keystone/habit-engine/tracker"
)

// RolloverScheduler invalidates day-dependent caches when the day changes.
type RolloverScheduler struct {
	Service       *tracker.Service
	CheckInterval time.Duration
	Enabled       bool
	BackupDir     string

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastDay calendar.Date
}

// NewRolloverScheduler creates a new scheduler.
func NewRolloverScheduler(svc *tracker.Service) *RolloverScheduler {
	return &RolloverScheduler{
		Service:       svc,
		CheckInterval: time.Minute,
		Enabled:       true,
	}
}

// Start begins the scheduler. Starting twice is a no-op.
func (rs *RolloverScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		logger.Info("rollover scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.lastDay = rs.Service.Today()
	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	logger.Info("rollover scheduler started", "interval", rs.CheckInterval, "today", rs.lastDay)
}

// Stop stops the scheduler. It is safe to call more than once.
func (rs *RolloverScheduler) Stop() {
	rs.mu.Lock()
	if rs.ticker == nil {
		rs.mu.Unlock()
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.ticker = nil
	rs.mu.Unlock()

	rs.wg.Wait()
	logger.Info("rollover scheduler stopped")
}

func (rs *RolloverScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	for {
		select {
		case <-ticker.C:
			rs.Check()
		case <-stop:
			return
		}
	}
}

// Check runs one rollover check and reports whether the day changed.
func (rs *RolloverScheduler) Check() bool {
	rs.mu.Lock()
	today := rs.Service.Today()
	if rs.lastDay.IsZero() {
		rs.lastDay = today
	}
	previous := rs.lastDay
	if today.Equal(previous) {
		rs.mu.Unlock()
		return false
	}
	rs.lastDay = today
	rs.mu.Unlock()

	rs.Service.Invalidate()

	ctx := context.Background()
	snap, err := rs.Service.Streaks(ctx)
	if err != nil {
		logger.Error("failed to compute streaks after rollover", "err", err)
	} else {
		logger.Info("day rolled over",
			"from", previous, "to", today,
			"current", snap.CurrentStreak, "best", snap.BestStreak,
			"perfect", snap.PerfectStreak, "weekly", snap.WeeklyStreak)
	}

	if rs.BackupDir != "" {
		rs.writeBackup(ctx, previous)
	}
	return true
}

// writeBackup saves the state as of the end of day.
func (rs *RolloverScheduler) writeBackup(ctx context.Context, day calendar.Date) {
	habits, logs, err := rs.Service.Data(ctx)
	if err != nil {
		logger.Error("failed to read data for backup", "err", err)
		return
	}
	data, err := backup.Marshal(backup.Export(habits, logs, rs.Service.Now()))
	if err != nil {
		logger.Error("failed to encode backup", "err", err)
		return
	}
	path, err := backup.WriteFile(rs.BackupDir, data, day)
	if err != nil {
		logger.Error("failed to write backup", "err", err)
		return
	}
	logger.Info("backup written", "path", path)
}
