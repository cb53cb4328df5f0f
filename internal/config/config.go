// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the server.
type Config struct {
	GitHub      GitHubConfig
	Server      ServerConfig
	Leaderboard LeaderboardConfig
	Slots       SlotsConfig
	LogLevel    string
}

// GitHubConfig configures access to the GitHub API.
type GitHubConfig struct {
	Token             string
	APIURL            string
	MaxRateLimitSleep time.Duration
}

// ServerConfig configures the HTTP transport and widget asset URLs.
type ServerConfig struct {
	Addr      string
	BaseURL   string
	AuthToken string
}

// LeaderboardConfig tunes the leaderboard scan and its cache.
type LeaderboardConfig struct {
	TTL   time.Duration
	Pages int
}

// SlotsConfig tunes the slot machine and the search tool.
type SlotsConfig struct {
	SpinMode    string
	SearchDelay time.Duration
}

// Load reads configuration from a .env file, if one exists, and the environment.
// Variables already set in the environment take precedence over .env.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		GitHub: GitHubConfig{
			Token:             getEnv("GITHUB_TOKEN", ""),
			APIURL:            getEnv("GITHUB_API_URL", ""),
			MaxRateLimitSleep: getEnvAsDuration("RATE_LIMIT_MAX_SLEEP", time.Minute),
		},
		Server: ServerConfig{
			Addr:      getEnv("ADDR", ":3000"),
			BaseURL:   getEnv("MCP_URL", "http://localhost:3000"),
			AuthToken: getEnv("MCP_AUTH_TOKEN", ""),
		},
		Leaderboard: LeaderboardConfig{
			TTL:   getEnvAsDuration("LEADERBOARD_TTL", 24*time.Hour),
			Pages: getEnvAsInt("LEADERBOARD_PAGES", 3),
		},
		Slots: SlotsConfig{
			SpinMode:    getEnv("SPIN_MODE", "server"),
			SearchDelay: getEnvAsDuration("SEARCH_DELAY", 2*time.Second),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Slots.SpinMode != "server" && c.Slots.SpinMode != "client" {
		return fmt.Errorf("SPIN_MODE must be server or client, got %q", c.Slots.SpinMode)
	}
	if c.Leaderboard.Pages < 1 || c.Leaderboard.Pages > 5 {
		return fmt.Errorf("LEADERBOARD_PAGES must be between 1 and 5, got %d", c.Leaderboard.Pages)
	}
	if c.Leaderboard.TTL <= 0 {
		return fmt.Errorf("LEADERBOARD_TTL must be positive, got %s", c.Leaderboard.TTL)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
