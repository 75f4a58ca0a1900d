// Package scheduler triggers periodic stale sweeps across a set of repositories.
package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/stale/internal/tracker"
)

const (
	DefaultInterval    = time.Hour
	DefaultConcurrency = 4
)

// RepoSource lists the repositories to sweep. The GitHub client's
// ListRepositories satisfies it through RepoFunc.
type RepoSource interface {
	Repositories(ctx context.Context) ([]tracker.Repository, error)
}

// RepoFunc adapts a function to RepoSource.
type RepoFunc func(ctx context.Context) ([]tracker.Repository, error)

// Repositories implements RepoSource.
func (f RepoFunc) Repositories(ctx context.Context) ([]tracker.Repository, error) {
	return f(ctx)
}

// StaticRepos is a fixed repository list.
type StaticRepos []tracker.Repository

// Repositories implements RepoSource.
func (s StaticRepos) Repositories(context.Context) ([]tracker.Repository, error) {
	return append([]tracker.Repository(nil), s...), nil
}

// ParseRepos parses "owner/name" entries into a StaticRepos.
func ParseRepos(names []string) (StaticRepos, error) {
	repos := make(StaticRepos, 0, len(names))
	var errs []error
	for _, n := range names {
		r, err := tracker.ParseRepository(n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		repos = append(repos, r)
	}
	return repos, errors.Join(errs...)
}

// SweepFunc runs one sweep of a repository.
type SweepFunc func(ctx context.Context, owner, repo string) error

// Summary reports one scheduled run.
type Summary struct {
	ID       string // random run identifier, attached to every log line of the run
	Started  time.Time
	Duration time.Duration
	Repos    int
	Failed   []string // full names of repositories whose sweep failed
}

// Scheduler sweeps every repository from Repos on a fixed interval.
type Scheduler struct {
	Repos       RepoSource
	Sweep       SweepFunc
	Interval    time.Duration
	Concurrency int
	Logger      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

// RunOnce sweeps every repository once. A repository's failure is logged and
// recorded in the summary; it never stops the others.
func (s *Scheduler) RunOnce(ctx context.Context) (Summary, error) {
	sum := Summary{ID: uuid.NewString(), Started: time.Now()}
	log := s.logger().With("run", sum.ID)

	repos, err := s.Repos.Repositories(ctx)
	if err != nil {
		return sum, err
	}
	sum.Repos = len(repos)

	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, r := range repos {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			start := time.Now()
			if err := s.Sweep(gctx, r.Owner, r.Name); err != nil {
				log.Error("sweep failed", "repo", r.FullName(), "error", err)
				mu.Lock()
				sum.Failed = append(sum.Failed, r.FullName())
				mu.Unlock()
				return nil
			}
			log.Debug("sweep finished", "repo", r.FullName(), "duration", time.Since(start))
			return nil
		})
	}
	_ = g.Wait()
	sum.Duration = time.Since(sum.Started)
	log.Info("scheduled run finished", "repos", sum.Repos, "failed", len(sum.Failed), "duration", sum.Duration)
	return sum, ctx.Err()
}

// Start runs immediately and then every Interval until ctx is cancelled or
// Stop is called. It returns once the loop is running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("scheduler already started")
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, interval, s.done)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	log := s.logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.Error("scheduled run failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
