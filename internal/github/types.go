// Package github adapts the GitHub REST API to the tracker capability used by
// the stale engine.
//
// It wraps go-github with exponential-backoff retry for rate limits and server
// errors, maps 404 responses to tracker.ErrNotFound, and converts GitHub
// issues and pull requests into tracker.Item snapshots.
package github

import (
	"time"

	gh "github.com/google/go-github/v68/github"

	"github.com/steveyegge/stale/internal/tracker"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the GitHub REST API base URL.
	DefaultAPIEndpoint = "https://api.github.com/"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RetryInitialInterval is the first backoff delay after a retryable failure.
	RetryInitialInterval = time.Second

	// RetryMaxElapsed bounds the total time spent retrying one call.
	RetryMaxElapsed = 2 * time.Minute

	// MaxPageSize is the page size used when listing repositories.
	MaxPageSize = 100

	// MaxPages stops repository listing after this many pages.
	MaxPages = 100
)

// IssueItem converts a GitHub issue (which may be a pull request) to a tracker item.
func IssueItem(issue *gh.Issue) tracker.Item {
	return tracker.Item{
		Number:       issue.GetNumber(),
		Title:        issue.GetTitle(),
		Labels:       labelNames(issue.Labels),
		State:        tracker.State(issue.GetState()),
		Locked:       issue.GetLocked(),
		UpdatedAt:    issue.GetUpdatedAt().Time,
		PullRequest:  issue.IsPullRequest(),
		HasMilestone: issue.Milestone != nil,
		HasAssignees: issue.Assignee != nil || len(issue.Assignees) > 0,
	}
}

// PullRequestItem converts a pull request payload to a tracker item.
func PullRequestItem(pr *gh.PullRequest) tracker.Item {
	return tracker.Item{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		Labels:       labelNames(pr.Labels),
		State:        tracker.State(pr.GetState()),
		Locked:       pr.GetLocked(),
		UpdatedAt:    pr.GetUpdatedAt().Time,
		PullRequest:  true,
		HasMilestone: pr.Milestone != nil,
		HasAssignees: pr.Assignee != nil || len(pr.Assignees) > 0,
	}
}

func labelNames(labels []*gh.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if name := l.GetName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func toLabel(l *gh.Label) *tracker.Label {
	return &tracker.Label{
		Name:        l.GetName(),
		Color:       l.GetColor(),
		Description: l.GetDescription(),
	}
}
