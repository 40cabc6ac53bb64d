package tracker

import (
	"sync"

	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/scoring"
)

// =============================================================================
// SNAPSHOT CACHE - memoized streak snapshots
// =============================================================================

// Revision identifies the catalog and log state a snapshot was computed from.
// Every mutation bumps one of the counters, so a stale key never matches.
type Revision struct {
	Catalog uint64
	Logs    uint64
}

type cacheKey struct {
	rev   Revision
	today calendar.Date
}

// SnapshotCache memoizes streak snapshots keyed by (revision, today).
// Only the latest key is retained: revisions only move forward.
type SnapshotCache struct {
	mu     sync.RWMutex
	key    cacheKey
	value  scoring.StreakSnapshot
	filled bool

	hits, misses uint64
}

// NewSnapshotCache creates an empty cache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{}
}

// Get returns the cached snapshot for the key, if present.
func (c *SnapshotCache) Get(rev Revision, today calendar.Date) (scoring.StreakSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.filled && c.key.rev == rev && c.key.today.Equal(today) {
		c.hits++
		return c.value, true
	}
	c.misses++
	return scoring.StreakSnapshot{}, false
}

// Put stores a snapshot, replacing any previous one.
func (c *SnapshotCache) Put(rev Revision, today calendar.Date, snap scoring.StreakSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = cacheKey{rev: rev, today: today}
	c.value = snap
	c.filled = true
}

// Invalidate drops the cached snapshot.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filled = false
	c.value = scoring.StreakSnapshot{}
}

// Stats returns hit and miss counts.
func (c *SnapshotCache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
