package domain

import "sort"

// CloseCount is the number of closing events seen for one login.
// AvatarURL is empty when no event carried an avatar.
type CloseCount struct {
	Count     int
	AvatarURL string
}

// CloseCounts maps a GitHub login to its closing tally.
type CloseCounts map[string]CloseCount

// Observe records one closing event. The first non-empty avatar for a login wins.
func (c CloseCounts) Observe(login, avatarURL string) {
	cur := c[login]
	cur.Count++
	if cur.AvatarURL == "" {
		cur.AvatarURL = avatarURL
	}
	c[login] = cur
}

// Closed returns the closing count for login, zero if unknown.
func (c CloseCounts) Closed(login string) int {
	return c[login].Count
}

// Clone returns an independent copy.
func (c CloseCounts) Clone() CloseCounts {
	out := make(CloseCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Login       string `json:"login"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	ClosedCount int    `json:"closedCount"`
}

// Rank orders logins by closed count (descending), breaking ties by login, and
// keeps the top limit rows. A limit <= 0 keeps every row.
func Rank(counts CloseCounts, limit int) []LeaderboardEntry {
	rows := make([]LeaderboardEntry, 0, len(counts))
	for login, cc := range counts {
		rows = append(rows, LeaderboardEntry{Login: login, AvatarURL: cc.AvatarURL, ClosedCount: cc.Count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ClosedCount != rows[j].ClosedCount {
			return rows[i].ClosedCount > rows[j].ClosedCount
		}
		return rows[i].Login < rows[j].Login
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
