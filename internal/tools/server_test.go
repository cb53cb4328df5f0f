package tools

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/issue-slots/internal/domain"
	"github.com/naka-gawa/issue-slots/internal/store"
	"github.com/naka-gawa/issue-slots/internal/usecase"
)

// stubFetcher serves canned GitHub data.
type stubFetcher struct {
	issues []domain.IssueRecord
	events []domain.IssueEvent
	err    error
}

func (f *stubFetcher) FetchIssues(_ context.Context, _ domain.RepoRef, _ string, _ int) ([]domain.IssueRecord, error) {
	return f.issues, f.err
}

func (f *stubFetcher) FetchIssueEvents(_ context.Context, _ domain.RepoRef, _ int) ([]domain.IssueEvent, error) {
	return f.events, f.err
}

func (f *stubFetcher) FetchRepoSummary(_ context.Context, _ domain.RepoRef) (*domain.RepoSummary, error) {
	return nil, nil
}

func connect(t *testing.T, fetcher *stubFetcher) *mcp.ClientSession {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	aggregator := usecase.NewAggregator(fetcher, store.NewLeaderboardCache(time.Hour, nil), logger)
	slot := usecase.NewSlotMachine(domain.SlotSymbols(), nil)
	svc := usecase.NewService(fetcher, aggregator, store.NewSpinSessions(), slot, usecase.Options{}, logger)
	server := NewServer("test", "https://slots.example.com/", svc)

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func decode(t *testing.T, res *mcp.CallToolResult, out any) {
	t.Helper()
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestServer_ListTools(t *testing.T) {
	session := connect(t, &stubFetcher{})

	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	byName := map[string]*mcp.Tool{}
	for _, tool := range res.Tools {
		byName[tool.Name] = tool
	}
	for _, name := range []string{"search", "repo-issues", "repo-issues-leaderboard", "slot-machine-spin", "repo-dashboard"} {
		require.Contains(t, byName, name)
	}

	dashboard := byName["repo-dashboard"]
	assert.Equal(t, "ui://widget/repo-dashboard.html", dashboard.Meta["ui/resourceUri"])
	assert.Equal(t, "https://slots.example.com/mcp-use/widgets/repo-dashboard", dashboard.Meta["mcp-use/widgetUrl"])
	assert.True(t, byName["repo-issues"].Annotations.ReadOnlyHint)
	assert.False(t, byName["slot-machine-spin"].Annotations.ReadOnlyHint)
}

func TestServer_Search(t *testing.T) {
	session := connect(t, &stubFetcher{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search",
		Arguments: map[string]any{"query": "berry"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, `Found 2 fruits matching "berry"`, text(t, res))

	var view usecase.SearchView
	decode(t, res, &view)
	require.Len(t, view.Results, 2)
	assert.Equal(t, "blueberry", view.Results[0].Fruit)
	assert.Equal(t, "strawberry", view.Results[1].Fruit)
}

func TestServer_ToolErrors(t *testing.T) {
	testCases := []struct {
		name     string
		tool     string
		args     map[string]any
		fetcher  *stubFetcher
		contains string
	}{
		{
			name:     "malformed repo",
			tool:     "repo-issues",
			args:     map[string]any{"repo": "octocat"},
			fetcher:  &stubFetcher{},
			contains: "invalid repo format",
		},
		{
			name:     "pages out of range",
			tool:     "repo-issues-leaderboard",
			args:     map[string]any{"repo": "octocat/Hello-World", "pages": 9},
			fetcher:  &stubFetcher{},
			contains: "pages must be between 1 and 5",
		},
		{
			name:     "upstream rate limit",
			tool:     "repo-issues",
			args:     map[string]any{"repo": "octocat/Hello-World"},
			fetcher:  &stubFetcher{err: domain.ErrRateLimited},
			contains: "GITHUB_TOKEN",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			session := connect(t, tc.fetcher)

			res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: tc.tool, Arguments: tc.args})
			require.NoError(t, err, "tool failures must not be protocol errors")
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), tc.contains)
		})
	}
}

func TestServer_SpinUntilLimit(t *testing.T) {
	fetcher := &stubFetcher{
		issues: []domain.IssueRecord{{Number: 1, Title: "Bug", State: "open", Author: "alice"}},
		events: []domain.IssueEvent{
			{Event: "closed", ActorLogin: "alice"},
			{Event: "closed", ActorLogin: "alice"},
		},
	}
	session := connect(t, fetcher)
	args := map[string]any{"repo": "https://github.com/octocat/Hello-World", "githubUsername": "alice"}

	for i := 0; i < 2; i++ {
		res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "slot-machine-spin", Arguments: args})
		require.NoError(t, err)
		require.False(t, res.IsError, text(t, res))

		var view usecase.DashboardView
		decode(t, res, &view)
		assert.Len(t, view.SlotReels, 3)
		assert.Equal(t, i+1, view.SessionSpins)
		assert.Equal(t, 1-i, view.SpinsRemaining)
		assert.Equal(t, view.SlotReels[0] == view.SlotReels[1] && view.SlotReels[1] == view.SlotReels[2], view.SlotWon)
	}

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "slot-machine-spin", Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), "No spins left")

	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "repo-dashboard",
		Arguments: map[string]any{"repo": "octocat/Hello-World", "githubUsername": "alice"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	var view usecase.DashboardView
	decode(t, res, &view)
	assert.Equal(t, 2, view.SessionSpins)
	assert.True(t, view.SpinLimitReached)
	assert.Equal(t, "Dashboard for octocat/Hello-World: 1 issues, 1 contributors", text(t, res))
}
