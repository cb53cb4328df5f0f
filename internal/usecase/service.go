package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/issue-slots/internal/domain"
	"github.com/naka-gawa/issue-slots/internal/gateway"
)

// Request bounds and defaults.
const (
	DefaultIssueLimit       = 30
	MaxIssueLimit           = 100
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 50
	dashboardBoardSize      = 10
)

// Spin modes. In server mode reels are always drawn here; in client mode a
// dashboard call may hand in reels drawn by the widget.
const (
	SpinModeServer = "server"
	SpinModeClient = "client"
)

// SessionStore is the spin bookkeeping the service writes through.
type SessionStore interface {
	Get(key domain.SessionKey) (domain.SpinSession, bool)
	Record(key domain.SessionKey, outcome domain.SpinOutcome, winChancePercent string, allotment int) (domain.SpinSession, error)
}

// Options tunes the service.
type Options struct {
	DefaultPages int
	SpinMode     string
	SearchDelay  time.Duration
}

// Service is the process-scoped context handed to every tool handler. It owns
// the gateway, the leaderboard aggregator, the spin sessions and the slot machine.
type Service struct {
	fetcher     gateway.Fetcher
	leaderboard *Aggregator
	sessions    SessionStore
	slot        *SlotMachine
	opts        Options
	logger      logrus.FieldLogger
}

// NewService wires a Service.
func NewService(fetcher gateway.Fetcher, leaderboard *Aggregator, sessions SessionStore, slot *SlotMachine, opts Options, logger logrus.FieldLogger) *Service {
	if opts.DefaultPages == 0 {
		opts.DefaultPages = DefaultLeaderboardPages
	}
	if opts.SpinMode == "" {
		opts.SpinMode = SpinModeServer
	}
	return &Service{
		fetcher:     fetcher,
		leaderboard: leaderboard,
		sessions:    sessions,
		slot:        slot,
		opts:        opts,
		logger:      logger,
	}
}

// SearchView lists the fruits matching a query.
type SearchView struct {
	Query   string         `json:"query"`
	Results []domain.Fruit `json:"results"`
}

// Search filters the fruit catalogue, after a delay that lets the widget show its loading state.
func (s *Service) Search(ctx context.Context, query string) (*SearchView, string, error) {
	needle := strings.ToLower(query)
	results := make([]domain.Fruit, 0, len(domain.Fruits))
	for _, f := range domain.Fruits {
		if needle == "" || strings.Contains(strings.ToLower(f.Fruit), needle) {
			results = append(results, f)
		}
	}

	if s.opts.SearchDelay > 0 {
		timer := time.NewTimer(s.opts.SearchDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-timer.C:
		}
	}

	label := query
	if label == "" {
		label = "all"
	}
	return &SearchView{Query: query, Results: results}, fmt.Sprintf("Found %d fruits matching %q", len(results), label), nil
}

// IssuesRequest is the input of RepoIssues.
type IssuesRequest struct {
	Repo           string
	State          string
	Limit          int
	GitHubUsername string
}

// IssuesView is the issue list, with the user's odds when a username was given.
type IssuesView struct {
	Repo             string               `json:"repo"`
	State            string               `json:"state"`
	Issues           []domain.IssueRecord `json:"issues"`
	WinChancePercent string               `json:"winChancePercent,omitempty"`
	LeaderboardError string               `json:"leaderboardError,omitempty"`
}

// RepoIssues lists issues. With a username the leaderboard is fetched alongside
// to compute the win chance; if that fails the base odds are reported.
func (s *Service) RepoIssues(ctx context.Context, req IssuesRequest) (*IssuesView, string, error) {
	repo, err := domain.ParseRepoRef(req.Repo)
	if err != nil {
		return nil, "", err
	}
	state, limit, err := issueParams(req.State, req.Limit)
	if err != nil {
		return nil, "", err
	}
	user := strings.TrimSpace(req.GitHubUsername)

	board := boardResult{}
	var issues []domain.IssueRecord
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		issues, err = s.fetcher.FetchIssues(egCtx, repo, state, limit)
		return err
	})
	if user != "" {
		eg.Go(func() error {
			board = s.loadBoard(egCtx, repo)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, "", err
	}

	view := &IssuesView{Repo: repo.String(), State: state, Issues: nonNilIssues(issues)}
	if user != "" {
		view.WinChancePercent = FormatPercent(WinChance(board.counts.Closed(user)))
		view.LeaderboardError = board.errText()
	}
	return view, fmt.Sprintf("Found %d %s issues in %s", len(view.Issues), state, view.Repo), nil
}

// LeaderboardRequest is the input of Leaderboard.
type LeaderboardRequest struct {
	Repo  string
	Limit int
	Pages int
}

// LeaderboardView is the ranked closed-issue leaderboard.
type LeaderboardView struct {
	Repo              string                    `json:"repo"`
	Pages             int                       `json:"pages"`
	Leaderboard       []domain.LeaderboardEntry `json:"leaderboard"`
	TotalContributors int                       `json:"totalContributors"`
	MeanClosed        float64                   `json:"meanClosed"`
	MedianClosed      float64                   `json:"medianClosed"`
}

// Leaderboard ranks contributors by issues closed over the scanned event window.
func (s *Service) Leaderboard(ctx context.Context, req LeaderboardRequest) (*LeaderboardView, string, error) {
	repo, err := domain.ParseRepoRef(req.Repo)
	if err != nil {
		return nil, "", err
	}
	limit, err := bounded("limit", req.Limit, DefaultLeaderboardLimit, 1, MaxLeaderboardLimit)
	if err != nil {
		return nil, "", err
	}
	pages, err := bounded("pages", req.Pages, s.opts.DefaultPages, MinLeaderboardPages, MaxLeaderboardPages)
	if err != nil {
		return nil, "", err
	}

	counts, err := s.leaderboard.Aggregate(ctx, repo, pages)
	if err != nil {
		return nil, "", err
	}
	mean, median := closedStats(counts)
	view := &LeaderboardView{
		Repo:              repo.String(),
		Pages:             pages,
		Leaderboard:       domain.Rank(counts, limit),
		TotalContributors: len(counts),
		MeanClosed:        mean,
		MedianClosed:      median,
	}
	return view, fmt.Sprintf("Leaderboard for %s: %d contributors", view.Repo, view.TotalContributors), nil
}

// DashboardView is the combined issues, leaderboard and slot panel.
type DashboardView struct {
	Repo              string                    `json:"repo"`
	State             string                    `json:"state"`
	Issues            []domain.IssueRecord      `json:"issues"`
	WinChancePercent  string                    `json:"winChancePercent,omitempty"`
	Leaderboard       []domain.LeaderboardEntry `json:"leaderboard"`
	TotalContributors int                       `json:"totalContributors"`
	LeaderboardError  string                    `json:"leaderboardError,omitempty"`
	Summary           *domain.RepoSummary       `json:"summary,omitempty"`
	GitHubUsername    string                    `json:"githubUsername,omitempty"`
	IssuesClosed      int                       `json:"issuesClosed"`
	MaxSpins          int                       `json:"maxSpins"`
	SpinsRemaining    int                       `json:"spinsRemaining"`
	SpinLimitReached  bool                      `json:"spinLimitReached"`
	SlotSymbols       []string                  `json:"slotSymbols,omitempty"`
	SlotReels         []string                  `json:"slotReels,omitempty"`
	SlotWon           bool                      `json:"slotWon,omitempty"`
	SlotSpinComplete  bool                      `json:"slotSpinComplete,omitempty"`
	SessionWins       int                       `json:"sessionWins"`
	SessionSpins      int                       `json:"sessionSpins"`
	SessionWinRate    string                    `json:"sessionWinRate,omitempty"`
	LastSpinID        string                    `json:"lastSpinId,omitempty"`
}

// RecordSpin is a lever pull reported by the widget.
type RecordSpin struct {
	Reels []string
	Won   bool
}

// DashboardRequest is the input of Dashboard.
type DashboardRequest struct {
	Repo           string
	GitHubUsername string
	State          string
	Limit          int
	RecordSpin     *RecordSpin
}

// Dashboard loads issues, the leaderboard and, over GraphQL when available, the
// repository summary in parallel. A RecordSpin performs a spin before the
// snapshot is taken. Only the issue fetch is fatal.
func (s *Service) Dashboard(ctx context.Context, req DashboardRequest) (*DashboardView, string, error) {
	repo, err := domain.ParseRepoRef(req.Repo)
	if err != nil {
		return nil, "", err
	}
	user, err := requireUsername(req.GitHubUsername)
	if err != nil {
		return nil, "", err
	}
	state, limit, err := issueParams(req.State, req.Limit)
	if err != nil {
		return nil, "", err
	}

	var (
		issues  []domain.IssueRecord
		board   boardResult
		summary *domain.RepoSummary
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		issues, err = s.fetcher.FetchIssues(egCtx, repo, state, limit)
		return err
	})
	eg.Go(func() error {
		board = s.loadBoard(egCtx, repo)
		return nil
	})
	eg.Go(func() error {
		var err error
		summary, err = s.fetcher.FetchRepoSummary(egCtx, repo)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).WithField("repo", repo.String()).Warn("Repo summary unavailable")
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, "", err
	}

	key := domain.SessionKey{Repo: repo.String(), Username: user}
	issuesClosed := board.counts.Closed(user)
	view := s.newDashboardView(repo, state, issues, board, user)
	view.Summary = summary

	message := fmt.Sprintf("Dashboard for %s: %d issues, %d contributors", view.Repo, len(view.Issues), view.TotalContributors)
	if req.RecordSpin != nil {
		message, err = s.record(view, key, issuesClosed, func() (domain.SpinOutcome, error) {
			return s.leverOutcome(req.RecordSpin, issuesClosed)
		})
		if err != nil {
			return nil, "", err
		}
	} else if sess, ok := s.sessions.Get(key); ok {
		applySession(view, sess, issuesClosed)
	}

	s.logger.WithFields(logrus.Fields{
		"repo":           view.Repo,
		"user":           user,
		"issuesClosed":   issuesClosed,
		"spinsRemaining": view.SpinsRemaining,
	}).Info("Dashboard assembled")
	return view, message, nil
}

// SpinRequest is the input of Spin.
type SpinRequest struct {
	Repo           string
	GitHubUsername string
}

// Spin executes one server-side spin for the user. The allotment is one spin
// per closed issue, so the leaderboard must be available; the issue list is not.
func (s *Service) Spin(ctx context.Context, req SpinRequest) (*DashboardView, string, error) {
	repo, err := domain.ParseRepoRef(req.Repo)
	if err != nil {
		return nil, "", err
	}
	user, err := requireUsername(req.GitHubUsername)
	if err != nil {
		return nil, "", err
	}

	var (
		issues []domain.IssueRecord
		counts domain.CloseCounts
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		issues, err = s.fetcher.FetchIssues(egCtx, repo, domain.StateOpen, DefaultIssueLimit)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).WithField("repo", repo.String()).Warn("Issue list unavailable for spin")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		counts, err = s.leaderboard.Aggregate(egCtx, repo, s.opts.DefaultPages)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, "", err
	}

	issuesClosed := counts.Closed(user)
	view := s.newDashboardView(repo, domain.StateOpen, issues, boardResult{counts: counts}, user)
	key := domain.SessionKey{Repo: repo.String(), Username: user}
	message, err := s.record(view, key, issuesClosed, func() (domain.SpinOutcome, error) {
		result := s.slot.Spin(WinChance(issuesClosed))
		s.logger.WithFields(logrus.Fields{
			"repo":         view.Repo,
			"user":         user,
			"issuesClosed": issuesClosed,
			"winChance":    view.WinChancePercent,
			"forced":       result.Forced,
		}).Debug("Executing spin")
		return result.Outcome, nil
	})
	if err != nil {
		return nil, "", err
	}
	return view, message, nil
}

// record draws and writes one spin, then fills the slot fields of view and
// returns the user-facing message. Nothing is drawn once the allotment is used up.
func (s *Service) record(view *DashboardView, key domain.SessionKey, allotment int, draw func() (domain.SpinOutcome, error)) (string, error) {
	if sess, ok := s.sessions.Get(key); sess.Spins >= allotment {
		return s.limitReached(view, key, sess, ok, allotment), nil
	}
	outcome, err := draw()
	if err != nil {
		return "", err
	}

	sess, err := s.sessions.Record(key, outcome, view.WinChancePercent, allotment)
	if errors.Is(err, domain.ErrSpinLimitReached) {
		return s.limitReached(view, key, sess, sess.Spins > 0, allotment), nil
	}
	if err != nil {
		return "", err
	}

	applySession(view, sess, allotment)
	s.logger.WithFields(logrus.Fields{
		"repo":           key.Repo,
		"user":           key.Username,
		"won":            outcome.Won,
		"spinsRemaining": view.SpinsRemaining,
		"sessionWinRate": view.SessionWinRate,
	}).Info("Spin complete")
	return outcome.Message(), nil
}

func (s *Service) limitReached(view *DashboardView, key domain.SessionKey, sess domain.SpinSession, found bool, allotment int) string {
	if found {
		applySession(view, sess, allotment)
	}
	view.SpinsRemaining = 0
	view.SpinLimitReached = true
	s.logger.WithFields(logrus.Fields{"repo": key.Repo, "user": key.Username, "maxSpins": allotment}).Info("Spin limit reached")
	return fmt.Sprintf("No spins left. You've used all %d spins (1 per issue closed). Close more issues to spin again!", allotment)
}

// leverOutcome decides the reels for a widget-reported spin.
func (s *Service) leverOutcome(rs *RecordSpin, issuesClosed int) (domain.SpinOutcome, error) {
	if s.opts.SpinMode != SpinModeClient {
		return s.slot.Spin(WinChance(issuesClosed)).Outcome, nil
	}
	if len(rs.Reels) != 3 {
		return domain.SpinOutcome{}, fmt.Errorf("%w: recordSpin.reels must have exactly 3 symbols", domain.ErrInvalidArgument)
	}
	for _, r := range rs.Reels {
		if !s.slot.Has(r) {
			return domain.SpinOutcome{}, fmt.Errorf("%w: unknown slot symbol %q", domain.ErrInvalidArgument, r)
		}
	}
	outcome := domain.NewSpinOutcome(domain.Reels{rs.Reels[0], rs.Reels[1], rs.Reels[2]})
	if outcome.Won != rs.Won {
		s.logger.WithFields(logrus.Fields{"reported": rs.Won, "computed": outcome.Won}).Warn("Client-reported win does not match reels")
	}
	return outcome, nil
}

func (s *Service) newDashboardView(repo domain.RepoRef, state string, issues []domain.IssueRecord, board boardResult, user string) *DashboardView {
	issuesClosed := board.counts.Closed(user)
	return &DashboardView{
		Repo:              repo.String(),
		State:             state,
		Issues:            nonNilIssues(issues),
		WinChancePercent:  FormatPercent(WinChance(issuesClosed)),
		Leaderboard:       domain.Rank(board.counts, dashboardBoardSize),
		TotalContributors: len(board.counts),
		LeaderboardError:  board.errText(),
		GitHubUsername:    user,
		IssuesClosed:      issuesClosed,
		MaxSpins:          issuesClosed,
		SpinsRemaining:    issuesClosed,
		SpinLimitReached:  issuesClosed <= 0,
		SlotSymbols:       s.slot.Symbols(),
	}
}

func applySession(view *DashboardView, sess domain.SpinSession, allotment int) {
	view.SlotReels = sess.LastReels[:]
	view.SlotWon = sess.LastWon
	view.SlotSpinComplete = true
	view.SessionWins = sess.Wins
	view.SessionSpins = sess.Spins
	view.SessionWinRate = sess.WinRate()
	view.LastSpinID = sess.LastSpinID
	view.SpinsRemaining = max(0, allotment-sess.Spins)
	view.SpinLimitReached = view.SpinsRemaining <= 0
}

// boardResult is a leaderboard fetch that is allowed to fail.
type boardResult struct {
	counts domain.CloseCounts
	err    error
}

func (b boardResult) errText() string {
	if b.err == nil {
		return ""
	}
	return b.err.Error()
}

// loadBoard never fails the caller; an unavailable leaderboard means base odds.
func (s *Service) loadBoard(ctx context.Context, repo domain.RepoRef) boardResult {
	counts, err := s.leaderboard.Aggregate(ctx, repo, s.opts.DefaultPages)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).WithField("repo", repo.String()).Warn("Leaderboard unavailable, falling back to base odds")
		}
		return boardResult{counts: domain.CloseCounts{}, err: err}
	}
	return boardResult{counts: counts}
}

func closedStats(counts domain.CloseCounts) (mean, median float64) {
	if len(counts) == 0 {
		return 0, 0
	}
	data := make(stats.Float64Data, 0, len(counts))
	for _, cc := range counts {
		data = append(data, float64(cc.Count))
	}
	mean, _ = stats.Mean(data)
	median, _ = stats.Median(data)
	return mean, median
}

func issueParams(state string, limit int) (string, int, error) {
	if state == "" {
		state = domain.StateOpen
	}
	if !domain.ValidState(state) {
		return "", 0, fmt.Errorf("%w: state must be open, closed or all, got %q", domain.ErrInvalidArgument, state)
	}
	limit, err := bounded("limit", limit, DefaultIssueLimit, 1, MaxIssueLimit)
	if err != nil {
		return "", 0, err
	}
	return state, limit, nil
}

// bounded applies def to a zero value and rejects anything outside [lo, hi].
func bounded(name string, v, def, lo, hi int) (int, error) {
	if v == 0 {
		return def, nil
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%w: %s must be between %d and %d, got %d", domain.ErrInvalidArgument, name, lo, hi, v)
	}
	return v, nil
}

func requireUsername(raw string) (string, error) {
	user := strings.TrimSpace(raw)
	if user == "" {
		return "", fmt.Errorf("%w: githubUsername is required", domain.ErrInvalidArgument)
	}
	return user, nil
}

func nonNilIssues(issues []domain.IssueRecord) []domain.IssueRecord {
	if issues == nil {
		return []domain.IssueRecord{}
	}
	return issues
}
