// Package tracker defines the remote issue-tracker capability consumed by the
// stale policy engine: the item model, the search request and the Remote
// interface that the GitHub adapter and the in-memory fake implement.
package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// State is the open/closed state of an issue or pull request.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// IsValid reports whether s is a state the tracker understands.
func (s State) IsValid() bool {
	return s == StateOpen || s == StateClosed
}

// Item is an issue or pull request as held by the remote tracker.
// The engine never persists a copy; it is a snapshot of one API response.
type Item struct {
	Number       int
	Title        string
	Labels       []string
	State        State
	Locked       bool
	UpdatedAt    time.Time
	PullRequest  bool // true for pull requests, false for issues
	HasMilestone bool
	HasAssignees bool
	InProject    bool
}

// HasLabel reports whether the item carries the named label.
func (i *Item) HasLabel(name string) bool {
	for _, l := range i.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// IsClosed reports whether the item is closed.
func (i *Item) IsClosed() bool {
	return i.State == StateClosed
}

// Label is a repository label.
type Label struct {
	Name        string
	Color       string
	Description string
}

// Repository identifies a repository by owner and name.
type Repository struct {
	Owner string
	Name  string
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository splits "owner/name".
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("invalid repository %q (expected owner/name)", s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

// SearchRequest is a single search against the remote tracker.
type SearchRequest struct {
	Query   string // tracker search syntax, e.g. `repo:o/r is:open label:"x"`
	Sort    string // "updated"
	Order   string // "asc" or "desc"
	PerPage int    // maximum number of items to return
}

// ErrNotFound is returned (wrapped) when the remote resource does not exist.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// RemoteError describes a failed remote call that is not a NotFound.
type RemoteError struct {
	Op         string // operation name, e.g. "add labels"
	StatusCode int    // HTTP status if known, 0 otherwise
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
