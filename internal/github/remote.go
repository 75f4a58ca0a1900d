package github

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/google/go-github/v68/github"

	"github.com/steveyegge/stale/internal/tracker"
)

// Search runs an issue search and returns the first page of results.
func (c *Client) Search(ctx context.Context, req tracker.SearchRequest) ([]tracker.Item, error) {
	if req.PerPage <= 0 {
		return nil, nil
	}
	opts := &gh.SearchOptions{
		Sort:        req.Sort,
		Order:       req.Order,
		ListOptions: gh.ListOptions{PerPage: req.PerPage},
	}
	var result *gh.IssuesSearchResult
	err := c.call(ctx, "search issues", func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		result, resp, err = c.api.Search.Issues(ctx, req.Query, opts)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	items := make([]tracker.Item, 0, len(result.Issues))
	for _, issue := range result.Issues {
		items = append(items, IssueItem(issue))
	}
	if len(items) > req.PerPage {
		items = items[:req.PerPage]
	}
	return items, nil
}

// GetLabel returns a repository label.
func (c *Client) GetLabel(ctx context.Context, owner, repo, name string) (*tracker.Label, error) {
	var label *gh.Label
	err := c.call(ctx, "get label "+name, func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		label, resp, err = c.api.Issues.GetLabel(ctx, owner, repo, name)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return toLabel(label), nil
}

// CreateLabel creates a repository label.
func (c *Client) CreateLabel(ctx context.Context, owner, repo string, label tracker.Label) error {
	body := &gh.Label{
		Name:  gh.Ptr(label.Name),
		Color: gh.Ptr(label.Color),
	}
	if label.Description != "" {
		body.Description = gh.Ptr(label.Description)
	}
	return c.call(ctx, "create label "+label.Name, func() (*gh.Response, error) {
		_, resp, err := c.api.Issues.CreateLabel(ctx, owner, repo, body)
		return resp, err
	})
}

// AddLabels adds labels to an issue or pull request.
func (c *Client) AddLabels(ctx context.Context, owner, repo string, number int, labels ...string) error {
	return c.call(ctx, fmt.Sprintf("add labels to #%d", number), func() (*gh.Response, error) {
		_, resp, err := c.api.Issues.AddLabelsToIssue(ctx, owner, repo, number, labels)
		return resp, err
	})
}

// RemoveLabel removes a label from an issue or pull request.
func (c *Client) RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error {
	return c.call(ctx, fmt.Sprintf("remove label %q from #%d", label, number), func() (*gh.Response, error) {
		return c.api.Issues.RemoveLabelForIssue(ctx, owner, repo, number, label)
	})
}

// CreateComment posts a comment on an issue or pull request.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	comment := &gh.IssueComment{Body: gh.Ptr(body)}
	return c.call(ctx, fmt.Sprintf("comment on #%d", number), func() (*gh.Response, error) {
		_, resp, err := c.api.Issues.CreateComment(ctx, owner, repo, number, comment)
		return resp, err
	})
}

// SetState opens or closes an issue or pull request.
func (c *Client) SetState(ctx context.Context, owner, repo string, number int, state tracker.State) error {
	if !state.IsValid() {
		return fmt.Errorf("invalid state %q", state)
	}
	req := &gh.IssueRequest{State: gh.Ptr(string(state))}
	return c.call(ctx, fmt.Sprintf("set #%d %s", number, state), func() (*gh.Response, error) {
		_, resp, err := c.api.Issues.Edit(ctx, owner, repo, number, req)
		return resp, err
	})
}

// Lock locks the conversation of an issue or pull request.
func (c *Client) Lock(ctx context.Context, owner, repo string, number int) error {
	return c.call(ctx, fmt.Sprintf("lock #%d", number), func() (*gh.Response, error) {
		return c.api.Issues.Lock(ctx, owner, repo, number, nil)
	})
}

// GetItem fetches a single issue or pull request.
func (c *Client) GetItem(ctx context.Context, owner, repo string, number int) (*tracker.Item, error) {
	var issue *gh.Issue
	err := c.call(ctx, fmt.Sprintf("get #%d", number), func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		issue, resp, err = c.api.Issues.Get(ctx, owner, repo, number)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	item := IssueItem(issue)
	return &item, nil
}

// GetContents returns a file from the repository's default branch.
func (c *Client) GetContents(ctx context.Context, owner, repo, path string) ([]byte, error) {
	var file *gh.RepositoryContent
	err := c.call(ctx, "get contents "+path, func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		file, _, resp, err = c.api.Repositories.GetContents(ctx, owner, repo, path, nil)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("get contents %s: is a directory: %w", path, tracker.ErrNotFound)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return []byte(content), nil
}

// ListRepositories returns the repositories the authenticated account can
// access, skipping archived ones.
func (c *Client) ListRepositories(ctx context.Context) ([]tracker.Repository, error) {
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: MaxPageSize},
	}
	var repos []tracker.Repository
	for page := 0; page < MaxPages; page++ {
		var (
			batch []*gh.Repository
			next  int
		)
		err := c.call(ctx, "list repositories", func() (*gh.Response, error) {
			var resp *gh.Response
			var err error
			batch, resp, err = c.api.Repositories.ListByAuthenticatedUser(ctx, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		for _, r := range batch {
			if r.GetArchived() {
				continue
			}
			repos = append(repos, tracker.Repository{
				Owner: r.GetOwner().GetLogin(),
				Name:  r.GetName(),
			})
		}
		if next == 0 {
			return repos, nil
		}
		opts.Page = next
	}
	return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
}

// AuthenticatedLogin returns the login of the account the token belongs to.
// Events sent by that account are the automation's own.
func (c *Client) AuthenticatedLogin(ctx context.Context) (string, error) {
	var user *gh.User
	err := c.call(ctx, "get authenticated user", func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		user, resp, err = c.api.Users.Get(ctx, "")
		return resp, err
	})
	if err != nil {
		return "", err
	}
	if user.GetLogin() == "" {
		return "", errors.New("get authenticated user: empty login")
	}
	return user.GetLogin(), nil
}
