// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/naka-gawa/issue-slots/internal/domain"
	"github.com/naka-gawa/issue-slots/internal/gateway"
	"github.com/naka-gawa/issue-slots/internal/store"
)

// Leaderboard page bounds.
const (
	MinLeaderboardPages     = 1
	MaxLeaderboardPages     = 5
	DefaultLeaderboardPages = 3
)

// LeaderboardCache is the storage the aggregator reads through.
type LeaderboardCache interface {
	Get(key store.LeaderboardKey) (domain.CloseCounts, bool)
	Put(key store.LeaderboardKey, data domain.CloseCounts)
}

// Aggregator is the use case for building the closed-issue leaderboard.
// It pages through issue events and caches the tally per (repo, pages).
type Aggregator struct {
	fetcher gateway.Fetcher
	cache   LeaderboardCache
	flight  singleflight.Group
	logger  logrus.FieldLogger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, cache LeaderboardCache, logger logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
	}
}

// Aggregate returns the closing tally for the first pages pages of issue events.
// A fresh cache entry is returned without touching the network; concurrent
// misses for the same key share one fetch sequence. The shared scan is detached
// from any single caller's cancellation, and each caller stops waiting when its
// own ctx is done.
func (a *Aggregator) Aggregate(ctx context.Context, repo domain.RepoRef, pages int) (domain.CloseCounts, error) {
	key := store.LeaderboardKey{Repo: repo.String(), Pages: pages}
	if counts, ok := a.cache.Get(key); ok {
		a.logger.WithFields(logrus.Fields{"repo": key.Repo, "pages": pages}).Debug("Leaderboard cache hit")
		return counts, nil
	}

	scanCtx := context.WithoutCancel(ctx)
	ch := a.flight.DoChan(fmt.Sprintf("%s:%d", key.Repo, key.Pages), func() (interface{}, error) {
		if counts, ok := a.cache.Get(key); ok {
			return counts, nil
		}
		counts, err := a.scan(scanCtx, repo, pages)
		if err != nil {
			return nil, err
		}
		a.cache.Put(key, counts)
		return counts, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(domain.CloseCounts).Clone(), nil
	}
}

func (a *Aggregator) scan(ctx context.Context, repo domain.RepoRef, pages int) (domain.CloseCounts, error) {
	a.logger.WithFields(logrus.Fields{"repo": repo.String(), "pages": pages}).Info("Usecase: Scanning issue events...")
	counts := domain.CloseCounts{}
	for page := 1; page <= pages; page++ {
		events, err := a.fetcher.FetchIssueEvents(ctx, repo, page)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			if ev.Event == "closed" && ev.ActorLogin != "" {
				counts.Observe(ev.ActorLogin, ev.ActorAvatarURL)
			}
		}
		if len(events) < gateway.EventsPerPage {
			break
		}
	}
	a.logger.WithFields(logrus.Fields{"repo": repo.String(), "contributors": len(counts)}).Info("Usecase: Scan complete.")
	return counts, nil
}
