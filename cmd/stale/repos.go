package main

import (
	"fmt"

	"github.com/steveyegge/stale/internal/config"
	"github.com/steveyegge/stale/internal/github"
	"github.com/steveyegge/stale/internal/scheduler"
)

// repoSource returns the configured repository list, or every repository
// the token can access when none is configured.
func repoSource(client *github.Client) (scheduler.RepoSource, error) {
	names := config.GetStringSlice(config.KeyScheduleRepos)
	if len(names) == 0 {
		return scheduler.RepoFunc(client.ListRepositories), nil
	}
	repos, err := scheduler.ParseRepos(names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.KeyScheduleRepos, err)
	}
	return repos, nil
}
