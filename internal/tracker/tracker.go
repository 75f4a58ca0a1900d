package tracker

import (
	"context"
)

// Remote is the capability the policy engine needs from a hosted issue tracker.
// Implementations own transport, pagination and retry; callers treat every call
// as a single remote mutation or read.
type Remote interface {
	// Search runs an issue search and returns at most req.PerPage items.
	Search(ctx context.Context, req SearchRequest) ([]Item, error)

	// GetLabel returns the repository label with the given name.
	// Returns an error wrapping ErrNotFound if the label does not exist.
	GetLabel(ctx context.Context, owner, repo, name string) (*Label, error)

	// CreateLabel creates a repository label.
	CreateLabel(ctx context.Context, owner, repo string, label Label) error

	// AddLabels adds labels to an issue or pull request.
	AddLabels(ctx context.Context, owner, repo string, number int, labels ...string) error

	// RemoveLabel removes a label from an issue or pull request.
	// Returns an error wrapping ErrNotFound if the label is not present.
	RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error

	// CreateComment posts a comment. Not idempotent: a retried call may duplicate.
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error

	// SetState opens or closes an issue or pull request.
	SetState(ctx context.Context, owner, repo string, number int, state State) error

	// Lock locks the conversation of an issue or pull request.
	Lock(ctx context.Context, owner, repo string, number int) error

	// GetItem fetches a single issue or pull request including its labels.
	GetItem(ctx context.Context, owner, repo string, number int) (*Item, error)
}

// ContentFetcher reads a file from a repository's default branch.
type ContentFetcher interface {
	// GetContents returns the raw file bytes.
	// Returns an error wrapping ErrNotFound if the file does not exist.
	GetContents(ctx context.Context, owner, repo, path string) ([]byte, error)
}
