package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"GITHUB_TOKEN", "GITHUB_API_URL", "ADDR", "MCP_URL", "MCP_AUTH_TOKEN",
		"LEADERBOARD_TTL", "LEADERBOARD_PAGES", "SPIN_MODE", "SEARCH_DELAY", "RATE_LIMIT_MAX_SLEEP", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:3000", cfg.Server.BaseURL)
	assert.Equal(t, 24*time.Hour, cfg.Leaderboard.TTL)
	assert.Equal(t, 3, cfg.Leaderboard.Pages)
	assert.Equal(t, "server", cfg.Slots.SpinMode)
	assert.Equal(t, 2*time.Second, cfg.Slots.SearchDelay)
	assert.Equal(t, time.Minute, cfg.GitHub.MaxRateLimitSleep)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("MCP_URL", "https://slots.example.com")
	t.Setenv("LEADERBOARD_TTL", "90m")
	t.Setenv("LEADERBOARD_PAGES", "5")
	t.Setenv("SPIN_MODE", "client")
	t.Setenv("SEARCH_DELAY", "0s")
	t.Setenv("MCP_AUTH_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.Equal(t, "https://slots.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 90*time.Minute, cfg.Leaderboard.TTL)
	assert.Equal(t, 5, cfg.Leaderboard.Pages)
	assert.Equal(t, "client", cfg.Slots.SpinMode)
	assert.Zero(t, cfg.Slots.SearchDelay)
	assert.Equal(t, "secret", cfg.Server.AuthToken)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown spin mode", key: "SPIN_MODE", value: "dealer"},
		{name: "too many pages", key: "LEADERBOARD_PAGES", value: "6"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.ErrorContains(t, err, tc.key)
		})
	}
}

func TestGetEnvAsInt_IgnoresGarbage(t *testing.T) {
	t.Setenv("LEADERBOARD_PAGES", "three")
	assert.Equal(t, 3, getEnvAsInt("LEADERBOARD_PAGES", 3))
}
