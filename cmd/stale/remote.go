package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/steveyegge/stale/internal/config"
	"github.com/steveyegge/stale/internal/github"
	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/stale"
	"github.com/steveyegge/stale/internal/tracker"
)

// newGitHubClient builds the GitHub client from service configuration.
func newGitHubClient() (*github.Client, error) {
	token := config.GetString(config.KeyGitHubToken)
	if token == "" {
		fmt.Fprintln(os.Stderr, "Warning: no GitHub token configured (set GITHUB_TOKEN); requests are rate limited")
	}
	client := github.NewClient(token)
	if base := config.GetString(config.KeyGitHubBaseURL); base != "" {
		return client.WithBaseURL(base)
	}
	return client, nil
}

// newLoader builds the policy loader that reads each repository's policy file.
func newLoader(fetcher tracker.ContentFetcher) *policy.Loader {
	return &policy.Loader{
		Fetcher:  fetcher,
		Path:     config.GetString(config.KeyPolicyPath),
		Resolver: policy.NewResolver(true, logger),
		Logger:   logger,
	}
}

// engineOptions returns the engine options shared by sweeps and the guard.
func engineOptions(dryRun bool, now func() time.Time) []stale.Option {
	opts := []stale.Option{
		stale.WithConcurrency(config.GetInt(config.KeyEngineConcurrency)),
		stale.WithDryRun(dryRun),
	}
	if now != nil {
		opts = append(opts, stale.WithClock(now))
	}
	return opts
}

type loginLookup interface {
	AuthenticatedLogin(ctx context.Context) (string, error)
}

// resolveBotLogin returns the configured bot login, or asks GitHub who the
// token belongs to. Without a token the bot has no identity of its own.
func resolveBotLogin(ctx context.Context, lookup loginLookup) (string, error) {
	if login := config.GetString(config.KeyGitHubBotLogin); login != "" {
		return login, nil
	}
	if config.GetString(config.KeyGitHubToken) == "" {
		return "", nil
	}
	login, err := lookup.AuthenticatedLogin(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve bot login (set %s to skip): %w", config.EnvVarFor(config.KeyGitHubBotLogin), err)
	}
	return login, nil
}
