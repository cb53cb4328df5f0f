// Package tools exposes the issue-slots use cases as MCP tools.
package tools

import (
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/naka-gawa/issue-slots/internal/usecase"
)

// Widget names rendered by the host for tool output.
const (
	searchWidget    = "product-search-result"
	dashboardWidget = "repo-dashboard"
)

// NewServer creates an MCP server with all issue-slots tools registered.
// baseURL is the public origin the widget assets are served from.
func NewServer(version, baseURL string, svc *usecase.Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "issue-slots",
		Title:   "Issue Slots",
		Version: version,
	}, nil)
	registerTools(server, strings.TrimSuffix(baseURL, "/"), svc)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for tools that only read from GitHub.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(true),
	}
}

// spinAnnotations returns annotations for tools that consume a spin.
func spinAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(true),
	}
}

// widgetMeta points the host at the widget that renders a tool's structured output.
func widgetMeta(baseURL, widget, invoking, invoked string) mcp.Meta {
	return mcp.Meta{
		"ui/resourceUri":                 "ui://widget/" + widget + ".html",
		"mcp-use/widgetUrl":              baseURL + "/mcp-use/widgets/" + widget,
		"openai/outputTemplate":          "ui://widget/" + widget + ".html",
		"openai/toolInvocation/invoking": invoking,
		"openai/toolInvocation/invoked":  invoked,
	}
}

// registerTools adds all issue-slots tools to the server.
func registerTools(server *mcp.Server, baseURL string, svc *usecase.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Search for fruits and display the results in a visual widget",
		Annotations: readOnlyAnnotations(),
		Meta:        widgetMeta(baseURL, searchWidget, "Searching...", "Results loaded"),
	}, handleSearch(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "repo-issues",
		Description: "List issues of a public GitHub repository. Pass githubUsername to also get that user's slot machine win chance.",
		Annotations: readOnlyAnnotations(),
	}, handleRepoIssues(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "repo-issues-leaderboard",
		Description: "Rank contributors of a GitHub repository by the number of issues they closed in recent issue events.",
		Annotations: readOnlyAnnotations(),
	}, handleLeaderboard(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "slot-machine-spin",
		Description: "Spin the slot machine for a GitHub user. Each issue the user closed in the repository is worth one spin and improves the odds.",
		Annotations: spinAnnotations(),
		Meta:        widgetMeta(baseURL, dashboardWidget, "Spinning...", "Spin complete"),
	}, handleSpin(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "repo-dashboard",
		Description: "Show issues, the closed-issue leaderboard and the user's slot machine in one dashboard. recordSpin pulls the lever.",
		Annotations: spinAnnotations(),
		Meta:        widgetMeta(baseURL, dashboardWidget, "Loading dashboard...", "Dashboard loaded"),
	}, handleDashboard(svc))
}
