package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/issue-slots/internal/domain"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLeaderboardCache_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewLeaderboardCache(24*time.Hour, clock.Now)
	key := LeaderboardKey{Repo: "octocat/Hello-World", Pages: 3}

	_, ok := cache.Get(key)
	assert.False(t, ok, "empty cache must miss")

	cache.Put(key, domain.CloseCounts{"alice": {Count: 2}})

	clock.Advance(23 * time.Hour)
	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, 2, got.Closed("alice"))

	clock.Advance(time.Hour)
	_, ok = cache.Get(key)
	assert.False(t, ok, "entry must expire exactly at the TTL")

	cache.Put(key, domain.CloseCounts{"bob": {Count: 1}})
	got, ok = cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, domain.CloseCounts{"bob": {Count: 1}}, got, "refresh replaces instead of merging")
	assert.Equal(t, 1, cache.Len())
}

func TestLeaderboardCache_KeysArePerPageCount(t *testing.T) {
	cache := NewLeaderboardCache(0, nil)
	cache.Put(LeaderboardKey{Repo: "o/r", Pages: 2}, domain.CloseCounts{"alice": {Count: 1}})

	_, ok := cache.Get(LeaderboardKey{Repo: "o/r", Pages: 3})
	assert.False(t, ok)
}

func TestLeaderboardCache_ReturnsCopies(t *testing.T) {
	cache := NewLeaderboardCache(time.Hour, nil)
	key := LeaderboardKey{Repo: "o/r", Pages: 1}
	data := domain.CloseCounts{"alice": {Count: 1}}
	cache.Put(key, data)

	data.Observe("alice", "")
	got, _ := cache.Get(key)
	got.Observe("alice", "")

	again, _ := cache.Get(key)
	assert.Equal(t, 1, again.Closed("alice"))
}
