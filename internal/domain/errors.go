package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRepoFormat is returned when a repository identifier cannot be parsed.
	ErrInvalidRepoFormat = errors.New("invalid repo format, use owner/repo (e.g. facebook/react)")
	// ErrRepositoryNotFound maps an upstream 404.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrRateLimited maps an upstream 403 or rate-limit response.
	ErrRateLimited = errors.New("GitHub API rate limit exceeded, set GITHUB_TOKEN for higher limits")
	// ErrSpinLimitReached means the user has used every spin of their allotment.
	ErrSpinLimitReached = errors.New("spin limit reached")
	// ErrInvalidArgument flags a tool argument outside its allowed range.
	ErrInvalidArgument = errors.New("invalid argument")
)

// UpstreamError is any other non-success status from GitHub.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("GitHub API error: %d", e.Status)
}
