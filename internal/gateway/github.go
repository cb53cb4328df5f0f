// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/issue-slots/internal/domain"
)

// EventsPerPage is the page size used when scanning issue events.
const EventsPerPage = 100

const userAgent = "issue-slots-mcp"

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	FetchIssues(ctx context.Context, repo domain.RepoRef, state string, limit int) ([]domain.IssueRecord, error)
	FetchIssueEvents(ctx context.Context, repo domain.RepoRef, page int) ([]domain.IssueEvent, error)
	// FetchRepoSummary returns nil without error when no GraphQL client is configured.
	FetchRepoSummary(ctx context.Context, repo domain.RepoRef) (*domain.RepoSummary, error)
}

// Options configures the gateway.
type Options struct {
	// Token is optional; without it requests are anonymous and GraphQL is disabled.
	Token string
	// APIURL overrides https://api.github.com/ (GitHub Enterprise or tests).
	APIURL string
	// MaxRateLimitSleep caps a single secondary rate-limit wait.
	MaxRateLimitSleep time.Duration
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        logrus.FieldLogger
}

// repoSummaryQuery fetches repository totals in a single round trip.
type repoSummaryQuery struct {
	Repository struct {
		NameWithOwner  githubv4.String
		StargazerCount githubv4.Int
		OpenIssues     struct {
			TotalCount githubv4.Int
		} `graphql:"openIssues: issues(states: OPEN)"`
		ClosedIssues struct {
			TotalCount githubv4.Int
		} `graphql:"closedIssues: issues(states: CLOSED)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger logrus.FieldLogger) (*GitHubGateway, error) {
	maxSleep := opts.MaxRateLimitSleep
	if maxSleep <= 0 {
		maxSleep = time.Minute
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(maxSleep, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	httpClient := &http.Client{Transport: transport}

	restClient := github.NewClient(httpClient)
	restClient.UserAgent = userAgent
	if opts.APIURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", opts.APIURL, err)
		}
		restClient.BaseURL = baseURL
	}

	g := &GitHubGateway{restClient: restClient, logger: logger}
	if opts.Token != "" {
		if opts.APIURL != "" {
			g.graphqlClient = githubv4.NewEnterpriseClient(strings.TrimSuffix(opts.APIURL, "/")+"/graphql", httpClient)
		} else {
			g.graphqlClient = githubv4.NewClient(httpClient)
		}
	}
	return g, nil
}

// FetchIssues lists page 1 of the repository's issues, dropping pull requests.
func (g *GitHubGateway) FetchIssues(ctx context.Context, repo domain.RepoRef, state string, limit int) ([]domain.IssueRecord, error) {
	g.logger.WithFields(logrus.Fields{"repo": repo.String(), "state": state, "limit": limit}).Debug("Fetching issues...")
	opts := &github.IssueListByRepoOptions{
		State:       state,
		ListOptions: github.ListOptions{Page: 1, PerPage: min(limit, 100)},
	}
	items, resp, err := g.restClient.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, classifyError(repo, resp, err)
	}

	issues := make([]domain.IssueRecord, 0, len(items))
	for _, item := range items {
		if item.IsPullRequest() {
			continue
		}
		author := item.GetUser().GetLogin()
		if author == "" {
			author = "unknown"
		}
		var createdAt string
		if item.CreatedAt != nil {
			createdAt = item.CreatedAt.UTC().Format(time.RFC3339)
		}
		issues = append(issues, domain.IssueRecord{
			Number:    item.GetNumber(),
			Title:     item.GetTitle(),
			State:     item.GetState(),
			URL:       item.GetHTMLURL(),
			Author:    author,
			CreatedAt: createdAt,
		})
		if len(issues) == limit {
			break
		}
	}
	return issues, nil
}

// FetchIssueEvents returns one page of repository issue events.
func (g *GitHubGateway) FetchIssueEvents(ctx context.Context, repo domain.RepoRef, page int) ([]domain.IssueEvent, error) {
	g.logger.WithFields(logrus.Fields{"repo": repo.String(), "page": page}).Debug("Fetching issue events...")
	opts := &github.ListOptions{Page: page, PerPage: EventsPerPage}
	items, resp, err := g.restClient.Issues.ListRepositoryEvents(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, classifyError(repo, resp, err)
	}

	events := make([]domain.IssueEvent, len(items))
	for i, item := range items {
		events[i] = domain.IssueEvent{
			Event:          item.GetEvent(),
			ActorLogin:     item.GetActor().GetLogin(),
			ActorAvatarURL: item.GetActor().GetAvatarURL(),
		}
	}
	return events, nil
}

// FetchRepoSummary queries repository totals over GraphQL.
func (g *GitHubGateway) FetchRepoSummary(ctx context.Context, repo domain.RepoRef) (*domain.RepoSummary, error) {
	if g.graphqlClient == nil {
		return nil, nil
	}
	var q repoSummaryQuery
	variables := map[string]interface{}{
		"owner": githubv4.String(repo.Owner),
		"name":  githubv4.String(repo.Name),
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for repo summary: %w", err)
	}
	return &domain.RepoSummary{
		NameWithOwner: string(q.Repository.NameWithOwner),
		Stars:         int(q.Repository.StargazerCount),
		OpenIssues:    int(q.Repository.OpenIssues.TotalCount),
		ClosedIssues:  int(q.Repository.ClosedIssues.TotalCount),
	}, nil
}

// classifyError maps a go-github failure onto the domain error taxonomy.
func classifyError(repo domain.RepoRef, resp *github.Response, err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return domain.ErrRateLimited
	}

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	} else {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response != nil {
			status = errResp.Response.StatusCode
		}
	}

	switch status {
	case 0:
		return fmt.Errorf("failed to reach GitHub API: %w", err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, repo)
	case http.StatusForbidden:
		return domain.ErrRateLimited
	default:
		return &domain.UpstreamError{Status: status}
	}
}
