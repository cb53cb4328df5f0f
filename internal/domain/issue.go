package domain

// Issue states accepted by the issue listing endpoint.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// IssueRecord is a normalized issue as shown to the user. Pull requests never become IssueRecords.
type IssueRecord struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	State     string `json:"state"`
	URL       string `json:"url"`
	Author    string `json:"author"`
	CreatedAt string `json:"createdAt"`
}

// IssueEvent is the subset of a repository issue event the leaderboard needs.
type IssueEvent struct {
	Event          string
	ActorLogin     string
	ActorAvatarURL string
}

// RepoSummary holds repository totals fetched over GraphQL.
type RepoSummary struct {
	NameWithOwner string `json:"nameWithOwner"`
	Stars         int    `json:"stars"`
	OpenIssues    int    `json:"openIssues"`
	ClosedIssues  int    `json:"closedIssues"`
}

// ValidState reports whether s is one of the supported issue states.
func ValidState(s string) bool {
	switch s {
	case StateOpen, StateClosed, StateAll:
		return true
	}
	return false
}
