package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/naka-gawa/issue-slots/internal/usecase"
)

// SearchInput is the input of the search tool.
type SearchInput struct {
	Query string `json:"query,omitempty" jsonschema:"fruit name or part of it; empty lists every fruit"`
}

// RepoIssuesInput is the input of the repo-issues tool.
type RepoIssuesInput struct {
	Repo           string `json:"repo" jsonschema:"repository as owner/name or a github.com URL"`
	State          string `json:"state,omitempty" jsonschema:"issue state: open, closed or all (default: open)"`
	Limit          int    `json:"limit,omitempty" jsonschema:"maximum number of issues (1-100, default: 30)"`
	GitHubUsername string `json:"githubUsername,omitempty" jsonschema:"GitHub login to compute the slot machine win chance for"`
}

// LeaderboardInput is the input of the repo-issues-leaderboard tool.
type LeaderboardInput struct {
	Repo  string `json:"repo" jsonschema:"repository as owner/name or a github.com URL"`
	Limit int    `json:"limit,omitempty" jsonschema:"number of ranked contributors to return (1-50, default: 10)"`
	Pages int    `json:"pages,omitempty" jsonschema:"pages of 100 issue events to scan (1-5, default: 3)"`
}

// SpinInput is the input of the slot-machine-spin tool.
type SpinInput struct {
	Repo           string `json:"repo" jsonschema:"repository as owner/name or a github.com URL"`
	GitHubUsername string `json:"githubUsername" jsonschema:"GitHub login spinning the machine"`
}

// RecordSpinInput is a lever pull reported by the dashboard widget.
type RecordSpinInput struct {
	Reels []string `json:"reels" jsonschema:"the three symbols shown by the widget"`
	Won   bool     `json:"won,omitempty" jsonschema:"whether the widget showed a win"`
}

// DashboardInput is the input of the repo-dashboard tool.
type DashboardInput struct {
	Repo           string           `json:"repo" jsonschema:"repository as owner/name or a github.com URL"`
	GitHubUsername string           `json:"githubUsername" jsonschema:"GitHub login whose spins and odds are shown"`
	State          string           `json:"state,omitempty" jsonschema:"issue state: open, closed or all (default: open)"`
	Limit          int              `json:"limit,omitempty" jsonschema:"maximum number of issues (1-100, default: 30)"`
	RecordSpin     *RecordSpinInput `json:"recordSpin,omitempty" jsonschema:"set when the user pulled the lever in the widget"`
}

// textResult carries the one-line summary next to the structured output.
func textResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
	}
}

func handleSearch(svc *usecase.Service) mcp.ToolHandlerFor[SearchInput, usecase.SearchView] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, usecase.SearchView, error) {
		view, message, err := svc.Search(ctx, in.Query)
		if err != nil {
			return nil, usecase.SearchView{}, err
		}
		return textResult(message), *view, nil
	}
}

func handleRepoIssues(svc *usecase.Service) mcp.ToolHandlerFor[RepoIssuesInput, usecase.IssuesView] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RepoIssuesInput) (*mcp.CallToolResult, usecase.IssuesView, error) {
		view, message, err := svc.RepoIssues(ctx, usecase.IssuesRequest{
			Repo:           in.Repo,
			State:          in.State,
			Limit:          in.Limit,
			GitHubUsername: in.GitHubUsername,
		})
		if err != nil {
			return nil, usecase.IssuesView{}, err
		}
		return textResult(message), *view, nil
	}
}

func handleLeaderboard(svc *usecase.Service) mcp.ToolHandlerFor[LeaderboardInput, usecase.LeaderboardView] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in LeaderboardInput) (*mcp.CallToolResult, usecase.LeaderboardView, error) {
		view, message, err := svc.Leaderboard(ctx, usecase.LeaderboardRequest{
			Repo:  in.Repo,
			Limit: in.Limit,
			Pages: in.Pages,
		})
		if err != nil {
			return nil, usecase.LeaderboardView{}, err
		}
		return textResult(message), *view, nil
	}
}

func handleSpin(svc *usecase.Service) mcp.ToolHandlerFor[SpinInput, usecase.DashboardView] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SpinInput) (*mcp.CallToolResult, usecase.DashboardView, error) {
		view, message, err := svc.Spin(ctx, usecase.SpinRequest{
			Repo:           in.Repo,
			GitHubUsername: in.GitHubUsername,
		})
		if err != nil {
			return nil, usecase.DashboardView{}, err
		}
		return textResult(message), *view, nil
	}
}

func handleDashboard(svc *usecase.Service) mcp.ToolHandlerFor[DashboardInput, usecase.DashboardView] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in DashboardInput) (*mcp.CallToolResult, usecase.DashboardView, error) {
		req := usecase.DashboardRequest{
			Repo:           in.Repo,
			GitHubUsername: in.GitHubUsername,
			State:          in.State,
			Limit:          in.Limit,
		}
		if in.RecordSpin != nil {
			req.RecordSpin = &usecase.RecordSpin{Reels: in.RecordSpin.Reels, Won: in.RecordSpin.Won}
		}
		view, message, err := svc.Dashboard(ctx, req)
		if err != nil {
			return nil, usecase.DashboardView{}, err
		}
		return textResult(message), *view, nil
	}
}
