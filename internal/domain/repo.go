// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var githubURLPrefix = regexp.MustCompile(`^https?://github\.com/`)

// RepoRef identifies a GitHub repository by owner and name.
type RepoRef struct {
	Owner string
	Name  string
}

// String returns the canonical "owner/name" form.
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepoRef accepts "owner/repo" or a github.com URL and returns the canonical pair.
// Anything after the repository segment (e.g. "/issues") is ignored.
func ParseRepoRef(raw string) (RepoRef, error) {
	s := githubURLPrefix.ReplaceAllString(strings.TrimSpace(raw), "")
	s = strings.TrimSuffix(s, "/")

	owner, rest, _ := strings.Cut(s, "/")
	name, _, _ := strings.Cut(rest, "/")
	if owner == "" || name == "" {
		return RepoRef{}, fmt.Errorf("%w: %q", ErrInvalidRepoFormat, raw)
	}
	return RepoRef{Owner: owner, Name: name}, nil
}
