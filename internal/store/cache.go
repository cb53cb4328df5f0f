// Package store holds the process-scoped in-memory state: the leaderboard
// cache and the spin sessions. Nothing here survives a restart.
package store

import (
	"sync"
	"time"

	"github.com/naka-gawa/issue-slots/internal/domain"
)

// DefaultLeaderboardTTL is how long an aggregated leaderboard stays fresh.
const DefaultLeaderboardTTL = 24 * time.Hour

// LeaderboardKey identifies one aggregation window.
type LeaderboardKey struct {
	Repo  string
	Pages int
}

type leaderboardEntry struct {
	data      domain.CloseCounts
	expiresAt time.Time
}

// LeaderboardCache is a TTL cache of closing tallies. Entries are replaced on
// refresh and never evicted otherwise.
type LeaderboardCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[LeaderboardKey]leaderboardEntry
}

// NewLeaderboardCache creates a cache; a nil clock means time.Now.
func NewLeaderboardCache(ttl time.Duration, now func() time.Time) *LeaderboardCache {
	if ttl <= 0 {
		ttl = DefaultLeaderboardTTL
	}
	if now == nil {
		now = time.Now
	}
	return &LeaderboardCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[LeaderboardKey]leaderboardEntry),
	}
}

// Get returns a copy of the cached tally while it is fresh.
func (c *LeaderboardCache) Get(key LeaderboardKey) (domain.CloseCounts, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.data.Clone(), true
}

// Put stores a copy of data, replacing any previous entry for key.
func (c *LeaderboardCache) Put(key LeaderboardKey, data domain.CloseCounts) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = leaderboardEntry{data: data.Clone(), expiresAt: c.now().Add(c.ttl)}
}

// Len reports how many keys are held, fresh or not.
func (c *LeaderboardCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
