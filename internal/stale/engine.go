// Package stale implements the mark-and-sweep policy engine: marking inactive
// issues and pull requests, closing and locking them later, and removing the
// mark again when activity resumes.
package stale

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/stale/internal/budget"
	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/query"
	"github.com/steveyegge/stale/internal/tracker"
)

// StaleLabelColor is used when the stale label has to be created.
const StaleLabelColor = "ffffff"

// DefaultConcurrency is the number of items processed in parallel per phase.
const DefaultConcurrency = 4

// Engine runs the policy for one repository configuration.
type Engine struct {
	remote      tracker.Remote
	cfg         *policy.Config
	logger      *slog.Logger
	now         func() time.Time
	concurrency int
	dryRun      bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for query cutoffs.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithConcurrency sets the number of items processed in parallel per phase.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithDryRun runs every phase of a performing configuration but only logs
// the mutations it would make. Dry-run actions still consume the budget.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) { e.dryRun = dryRun }
}

// New creates an engine for cfg. A nil logger discards output.
func New(remote tracker.Remote, cfg *policy.Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{
		remote:      remote,
		cfg:         cfg,
		logger:      logger.With("repo", cfg.FullName()),
		now:         time.Now,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunResult counts what one MarkAndSweep call did.
type RunResult struct {
	Type    policy.ItemType
	Ran     bool // false when `only` or `perform` disabled the run
	Marked  int
	Closed  int
	Locked  int
	Skipped int // candidates left for a later run because the budget ran out
	Errors  int
	DryRun  bool
}

// Actions returns the number of budgeted actions taken.
func (r *RunResult) Actions() int {
	return r.Marked + r.Closed + r.Locked
}

// run is the state of one MarkAndSweep invocation.
type run struct {
	*Engine
	typ      policy.ItemType
	settings policy.Settings
	budget   *budget.Budget
	builder  query.Builder

	mu     sync.Mutex
	result *RunResult
	errs   []error
}

// MarkAndSweep runs the marking pass and the sweeping passes for items of
// type t. Per-item failures do not stop the run; they are counted and joined
// into the returned error.
func (e *Engine) MarkAndSweep(ctx context.Context, t policy.ItemType) (*RunResult, error) {
	result := &RunResult{Type: t, DryRun: e.dryRun}

	if !e.cfg.AppliesTo(t) {
		e.logger.Debug("skipping item type", "type", t, "only", e.cfg.Only)
		return result, nil
	}
	s := e.cfg.For(t)
	if !s.Perform {
		e.logger.Debug("perform disabled, skipping", "type", t)
		return result, nil
	}
	result.Ran = true

	r := &run{
		Engine:   e,
		typ:      t,
		settings: s,
		budget:   budget.New(s.LimitPerRun),
		builder: query.Builder{
			Owner:    e.cfg.Owner,
			Repo:     e.cfg.Repo,
			Type:     t,
			Settings: s,
			Now:      e.now(),
		},
		result: result,
	}

	if err := r.ensureStaleLabelExists(ctx); err != nil {
		r.fail(err)
	}

	// Phase 1: mark
	r.phase(ctx, "mark", r.staleCandidates, r.mark)

	// Phase 2: close
	if s.DaysUntilClose.Enabled {
		r.phase(ctx, "close", r.closableCandidates, r.close)
	}

	// Phase 3: lock
	if s.DaysUntilLock.Enabled {
		r.phase(ctx, "lock", r.lockableCandidates, r.lock)
	}

	e.logger.Info("mark and sweep complete",
		"type", t,
		"marked", result.Marked,
		"closed", result.Closed,
		"locked", result.Locked,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"dry_run", e.dryRun)
	return result, errors.Join(r.errs...)
}

// EnsureStaleLabelExists creates the stale label for type t if the
// repository does not have it.
func (e *Engine) EnsureStaleLabelExists(ctx context.Context, t policy.ItemType) error {
	return e.ensureLabel(ctx, e.cfg.For(t).StaleLabel)
}

func (e *Engine) ensureLabel(ctx context.Context, name string) error {
	_, err := e.remote.GetLabel(ctx, e.cfg.Owner, e.cfg.Repo, name)
	if err == nil {
		return nil
	}
	if !tracker.IsNotFound(err) {
		return fmt.Errorf("get label %q: %w", name, err)
	}
	if e.dryRun {
		e.logger.Info("would create label (dry-run)", "label", name)
		return nil
	}
	if err := e.remote.CreateLabel(ctx, e.cfg.Owner, e.cfg.Repo, tracker.Label{Name: name, Color: StaleLabelColor}); err != nil {
		return fmt.Errorf("create label %q: %w", name, err)
	}
	e.logger.Info("created stale label", "label", name)
	return nil
}

func (r *run) ensureStaleLabelExists(ctx context.Context) error {
	return r.ensureLabel(ctx, r.settings.StaleLabel)
}

// phase fetches candidates and applies act to each, bounded by the shared
// budget and the engine's concurrency.
func (r *run) phase(ctx context.Context, name string,
	candidates func(context.Context) ([]tracker.Item, error),
	act func(context.Context, tracker.Item) (bool, error),
) {
	if r.budget.Remaining() == 0 {
		r.logger.Debug("budget exhausted, skipping phase", "phase", name, "type", r.typ)
		return
	}
	items, err := candidates(ctx)
	if err != nil {
		r.fail(fmt.Errorf("%s candidates: %w", name, err))
		return
	}
	r.logger.Debug("candidates", "phase", name, "type", r.typ, "count", len(items))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, item := range items {
		g.Go(func() error {
			acted, err := act(ctx, item)
			switch {
			case err != nil:
				r.fail(fmt.Errorf("%s #%d: %w", name, item.Number, err))
			case !acted:
				r.record(func(res *RunResult) { res.Skipped++ })
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (r *run) fail(err error) {
	r.logger.Error("stale action failed", "type", r.typ, "error", err)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.result.Errors++
}

func (r *run) record(fn func(*RunResult)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.result)
}

// staleCandidates unions the stale searches, dropping duplicates and locked
// conversations.
func (r *run) staleCandidates(ctx context.Context) ([]tracker.Item, error) {
	var all []tracker.Item
	for _, req := range r.builder.Stale(r.budget.Remaining()) {
		items, err := r.remote.Search(ctx, req)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return tracker.Unlocked(tracker.Unique(all)), nil
}

func (r *run) closableCandidates(ctx context.Context) ([]tracker.Item, error) {
	items, err := r.remote.Search(ctx, r.builder.Closable(r.budget.Remaining()))
	if err != nil {
		return nil, err
	}
	return tracker.Unlocked(items), nil
}

func (r *run) lockableCandidates(ctx context.Context) ([]tracker.Item, error) {
	items, err := r.remote.Search(ctx, r.builder.Lockable(r.budget.Remaining()))
	if err != nil {
		return nil, err
	}
	return tracker.Unlocked(items), nil
}

// mark posts the mark comment, then adds the stale label. It reports false
// when the budget is exhausted.
func (r *run) mark(ctx context.Context, item tracker.Item) (bool, error) {
	if !r.budget.Take() {
		return false, nil
	}
	log := r.logger.With("number", item.Number, "type", r.typ)
	if r.dryRun {
		log.Info("would mark (dry-run)")
		r.record(func(res *RunResult) { res.Marked++ })
		return true, nil
	}

	log.Info("marking")
	if r.settings.MarkComment.Enabled {
		if err := r.remote.CreateComment(ctx, r.cfg.Owner, r.cfg.Repo, item.Number, r.settings.MarkCommentBody()); err != nil {
			return true, fmt.Errorf("mark comment: %w", err)
		}
	}
	if err := r.remote.AddLabels(ctx, r.cfg.Owner, r.cfg.Repo, item.Number, r.settings.StaleLabel); err != nil {
		return true, fmt.Errorf("add stale label: %w", err)
	}
	r.record(func(res *RunResult) { res.Marked++ })
	return true, nil
}

// close posts the close comment, adds closedLabel and closes the item.
func (r *run) close(ctx context.Context, item tracker.Item) (bool, error) {
	if !r.budget.Take() {
		return false, nil
	}
	log := r.logger.With("number", item.Number, "type", r.typ)
	if r.dryRun {
		log.Info("would close (dry-run)")
		r.record(func(res *RunResult) { res.Closed++ })
		return true, nil
	}

	log.Info("closing")
	if r.settings.CloseComment.Enabled {
		if err := r.remote.CreateComment(ctx, r.cfg.Owner, r.cfg.Repo, item.Number, r.settings.CloseComment.Text); err != nil {
			return true, fmt.Errorf("close comment: %w", err)
		}
	}
	if r.settings.ClosedLabel != "" {
		if err := r.remote.AddLabels(ctx, r.cfg.Owner, r.cfg.Repo, item.Number, r.settings.ClosedLabel); err != nil {
			return true, fmt.Errorf("add closed label: %w", err)
		}
	}
	if err := r.remote.SetState(ctx, r.cfg.Owner, r.cfg.Repo, item.Number, tracker.StateClosed); err != nil {
		return true, fmt.Errorf("close: %w", err)
	}
	r.record(func(res *RunResult) { res.Closed++ })
	return true, nil
}

func (r *run) lock(ctx context.Context, item tracker.Item) (bool, error) {
	if !r.budget.Take() {
		return false, nil
	}
	log := r.logger.With("number", item.Number, "type", r.typ)
	if r.dryRun {
		log.Info("would lock (dry-run)")
		r.record(func(res *RunResult) { res.Locked++ })
		return true, nil
	}

	log.Info("locking")
	if err := r.remote.Lock(ctx, r.cfg.Owner, r.cfg.Repo, item.Number); err != nil {
		return true, fmt.Errorf("lock: %w", err)
	}
	r.record(func(res *RunResult) { res.Locked++ })
	return true, nil
}

// Unmark removes the stale label from an item of type t, posting the unmark
// comment first when one is configured. It is not budgeted. A label that is
// already gone counts as success. It reports whether the tracker was changed,
// which is false when perform is off or in dry-run.
func (e *Engine) Unmark(ctx context.Context, t policy.ItemType, item tracker.Item) (bool, error) {
	s := e.cfg.For(t)
	log := e.logger.With("number", item.Number, "type", t)
	if !s.Perform {
		log.Debug("perform disabled, not unmarking")
		return false, nil
	}
	if e.dryRun {
		log.Info("would unmark (dry-run)")
		return false, nil
	}

	log.Info("unmarking")
	if s.UnmarkComment.Enabled {
		if err := e.remote.CreateComment(ctx, e.cfg.Owner, e.cfg.Repo, item.Number, s.UnmarkComment.Text); err != nil {
			return false, fmt.Errorf("unmark #%d comment: %w", item.Number, err)
		}
	}
	err := e.remote.RemoveLabel(ctx, e.cfg.Owner, e.cfg.Repo, item.Number, s.StaleLabel)
	if err != nil && !tracker.IsNotFound(err) {
		return false, fmt.Errorf("unmark #%d: %w", item.Number, err)
	}
	return true, nil
}
