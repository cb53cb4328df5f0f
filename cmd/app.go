package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/issue-slots/internal/config"
	"github.com/naka-gawa/issue-slots/internal/domain"
	"github.com/naka-gawa/issue-slots/internal/gateway"
	"github.com/naka-gawa/issue-slots/internal/logger"
	"github.com/naka-gawa/issue-slots/internal/store"
	"github.com/naka-gawa/issue-slots/internal/usecase"
)

// app is the dependency graph shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	service *usecase.Service
}

// newApp loads configuration and wires the gateway, stores and use cases.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	log := logger.New(cfg.LogLevel, verbose)
	if cfg.GitHub.Token == "" {
		log.Warn("GITHUB_TOKEN is not set; using unauthenticated GitHub API with low rate limits")
	}

	githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
		Token:             cfg.GitHub.Token,
		APIURL:            cfg.GitHub.APIURL,
		MaxRateLimitSleep: cfg.GitHub.MaxRateLimitSleep,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	aggregator := usecase.NewAggregator(githubGateway, store.NewLeaderboardCache(cfg.Leaderboard.TTL, nil), log)
	slot := usecase.NewSlotMachine(domain.SlotSymbols(), nil)
	service := usecase.NewService(githubGateway, aggregator, store.NewSpinSessions(), slot, usecase.Options{
		DefaultPages: cfg.Leaderboard.Pages,
		SpinMode:     cfg.Slots.SpinMode,
		SearchDelay:  cfg.Slots.SearchDelay,
	}, log)

	return &app{cfg: cfg, logger: log, service: service}, nil
}
