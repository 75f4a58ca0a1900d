package stale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/tracker"
)

// Sweeper runs MarkAndSweep for both item types of a repository.
type Sweeper struct {
	Configs     ConfigSource
	Remote      tracker.Remote
	Logger      *slog.Logger
	Concurrency int
	Options     []Option
	// Types restricts the sweep; empty means pulls, then issues.
	Types []policy.ItemType
}

// Sweep runs pulls, then issues. A failure in one type does not skip the
// other; their errors are joined.
func (s *Sweeper) Sweep(ctx context.Context, owner, repo string) ([]*RunResult, error) {
	cfg := s.Configs.Load(ctx, owner, repo)
	opts := append([]Option{WithConcurrency(s.Concurrency)}, s.Options...)
	engine := New(s.Remote, cfg, s.Logger, opts...)

	var (
		results []*RunResult
		errs    []error
	)
	types := s.Types
	if len(types) == 0 {
		types = []policy.ItemType{policy.Pulls, policy.Issues}
	}
	for _, t := range types {
		res, err := engine.MarkAndSweep(ctx, t)
		results = append(results, res)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", cfg.FullName(), t, err))
		}
	}
	return results, errors.Join(errs...)
}
