// Package memory provides an in-memory tracker.Remote for tests and demos.
//
// It understands the subset of the GitHub search syntax produced by the query
// package and records every call so tests can assert on ordering and counts.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/steveyegge/stale/internal/tracker"
)

// Call records one invocation against the fake tracker.
type Call struct {
	Op     string // "search", "add-labels", "remove-label", "comment", "set-state", "lock", ...
	Repo   string // owner/repo
	Number int
	Arg    string // label, body, state or query depending on Op
}

// Tracker is a thread-safe in-memory implementation of tracker.Remote and
// tracker.ContentFetcher.
type Tracker struct {
	mu     sync.Mutex
	repos  map[string]*repoState
	calls  []Call
	failOn map[string]func(number int) error

	// Now is used to bump UpdatedAt on mutations, like the real tracker does.
	Now func() time.Time
}

type repoState struct {
	items  map[int]*tracker.Item
	labels map[string]tracker.Label
	files  map[string][]byte
}

var (
	_ tracker.Remote         = (*Tracker)(nil)
	_ tracker.ContentFetcher = (*Tracker)(nil)
)

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		repos:  make(map[string]*repoState),
		failOn: make(map[string]func(int) error),
		Now:    time.Now,
	}
}

func (t *Tracker) repo(owner, repo string) *repoState {
	key := owner + "/" + repo
	r, ok := t.repos[key]
	if !ok {
		r = &repoState{
			items:  make(map[int]*tracker.Item),
			labels: make(map[string]tracker.Label),
			files:  make(map[string][]byte),
		}
		t.repos[key] = r
	}
	return r
}

// AddItem stores an issue or pull request.
func (t *Tracker) AddItem(owner, repo string, item tracker.Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if item.State == "" {
		item.State = tracker.StateOpen
	}
	cp := item
	cp.Labels = append([]string(nil), item.Labels...)
	t.repo(owner, repo).items[item.Number] = &cp
}

// Item returns a copy of the stored item.
func (t *Tracker) Item(owner, repo string, number int) (tracker.Item, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	it, ok := t.repo(owner, repo).items[number]
	if !ok {
		return tracker.Item{}, false
	}
	cp := *it
	cp.Labels = append([]string(nil), it.Labels...)
	return cp, true
}

// AddRepoLabel registers a repository label.
func (t *Tracker) AddRepoLabel(owner, repo string, label tracker.Label) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.repo(owner, repo).labels[label.Name] = label
}

// HasRepoLabel reports whether the repository label exists.
func (t *Tracker) HasRepoLabel(owner, repo, name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.repo(owner, repo).labels[name]
	return ok
}

// SetFile stores repository file contents for GetContents.
func (t *Tracker) SetFile(owner, repo, path string, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.repo(owner, repo).files[path] = append([]byte(nil), data...)
}

// FailOn makes every call to op consult fn; a non-nil result is returned
// instead of performing the operation.
func (t *Tracker) FailOn(op string, fn func(number int) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failOn[op] = fn
}

// Calls returns a copy of all recorded calls.
func (t *Tracker) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// CallsFor returns the recorded calls with the given op.
func (t *Tracker) CallsFor(op string) []Call {
	var out []Call
	for _, c := range t.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the call log.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}

// record appends a call and returns the injected failure, if any.
// Caller must hold t.mu.
func (t *Tracker) record(c Call) error {
	t.calls = append(t.calls, c)
	if fn := t.failOn[c.Op]; fn != nil {
		return fn(c.Number)
	}
	return nil
}

func (t *Tracker) touch(it *tracker.Item) {
	if t.Now != nil {
		it.UpdatedAt = t.Now()
	}
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, tracker.ErrNotFound)
}

// Search implements tracker.Remote.
func (t *Tracker) Search(_ context.Context, req tracker.SearchRequest) ([]tracker.Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Op: "search", Arg: req.Query}); err != nil {
		return nil, err
	}

	q, err := Parse(req.Query)
	if err != nil {
		return nil, err
	}
	r, ok := t.repos[q.Repo]
	if !ok {
		return nil, nil
	}

	var matched []tracker.Item
	for _, it := range r.items {
		if q.Matches(it) {
			cp := *it
			cp.Labels = append([]string(nil), it.Labels...)
			matched = append(matched, cp)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.Number < b.Number
		}
		if req.Order == "asc" {
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})

	if req.PerPage > 0 && len(matched) > req.PerPage {
		matched = matched[:req.PerPage]
	}
	return matched, nil
}

// GetLabel implements tracker.Remote.
func (t *Tracker) GetLabel(_ context.Context, owner, repo, name string) (*tracker.Label, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Op: "get-label", Repo: owner + "/" + repo, Arg: name}); err != nil {
		return nil, err
	}
	l, ok := t.repo(owner, repo).labels[name]
	if !ok {
		return nil, notFound("label " + name)
	}
	return &l, nil
}

// CreateLabel implements tracker.Remote.
func (t *Tracker) CreateLabel(_ context.Context, owner, repo string, label tracker.Label) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Op: "create-label", Repo: owner + "/" + repo, Arg: label.Name}); err != nil {
		return err
	}
	r := t.repo(owner, repo)
	if _, exists := r.labels[label.Name]; exists {
		return fmt.Errorf("label %q already exists", label.Name)
	}
	r.labels[label.Name] = label
	return nil
}

// AddLabels implements tracker.Remote.
func (t *Tracker) AddLabels(_ context.Context, owner, repo string, number int, labels ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Op: "add-labels", Repo: owner + "/" + repo, Number: number, Arg: strings.Join(labels, ",")}); err != nil {
		return err
	}
	it, ok := t.repo(owner, repo).items[number]
	if !ok {
		return notFound(fmt.Sprintf("item #%d", number))
	}
	for _, l := range labels {
		if !it.HasLabel(l) {
			it.Labels = append(it.Labels, l)
		}
	}
	t.touch(it)
	return nil
}

// RemoveLabel implements tracker.Remote.
func (t *Tracker) RemoveLabel(_ context.Context, owner, repo string, number int, label string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Op: "remove-label", Repo: owner + "/" + repo, Number: number, Arg: label}); err != nil {
		return err
	}
	it, ok := t.repo(owner, repo).items[number]
	if !ok || !it.HasLabel(label) {
		return notFound(fmt.Sprintf("label %q on #%d", label, number))
	}
	kept := it.Labels[:0]
	for _, l := range it.Labels {
		if l != label {
			kept = append(kept, l)
		}
	}
	it.Labels = kept
	t.touch(it)
	return nil
}

// CreateComment implements tracker.Remote.
func (t *Tracker) CreateComment(_ context.Context, owner, repo string, number int, body string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Op: "comment", Repo: owner + "/" + repo, Number: number, Arg: body}); err != nil {
		return err
	}
	it, ok := t.repo(owner, repo).items[number]
	if !ok {
		return notFound(fmt.Sprintf("item #%d", number))
	}
	t.touch(it)
	return nil
}

// SetState implements tracker.Remote.
func (t *Tracker) SetState(_ context.Context, owner, repo string, number int, state tracker.State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Op: "set-state", Repo: owner + "/" + repo, Number: number, Arg: string(state)}); err != nil {
		return err
	}
	if !state.IsValid() {
		return fmt.Errorf("invalid state %q", state)
	}
	it, ok := t.repo(owner, repo).items[number]
	if !ok {
		return notFound(fmt.Sprintf("item #%d", number))
	}
	it.State = state
	t.touch(it)
	return nil
}

// Lock implements tracker.Remote.
func (t *Tracker) Lock(_ context.Context, owner, repo string, number int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Op: "lock", Repo: owner + "/" + repo, Number: number}); err != nil {
		return err
	}
	it, ok := t.repo(owner, repo).items[number]
	if !ok {
		return notFound(fmt.Sprintf("item #%d", number))
	}
	it.Locked = true
	return nil
}

// GetItem implements tracker.Remote.
func (t *Tracker) GetItem(_ context.Context, owner, repo string, number int) (*tracker.Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Op: "get-item", Repo: owner + "/" + repo, Number: number}); err != nil {
		return nil, err
	}
	it, ok := t.repo(owner, repo).items[number]
	if !ok {
		return nil, notFound(fmt.Sprintf("item #%d", number))
	}
	cp := *it
	cp.Labels = append([]string(nil), it.Labels...)
	return &cp, nil
}

// GetContents implements tracker.ContentFetcher.
func (t *Tracker) GetContents(_ context.Context, owner, repo, path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Op: "get-contents", Repo: owner + "/" + repo, Arg: path}); err != nil {
		return nil, err
	}
	data, ok := t.repo(owner, repo).files[path]
	if !ok {
		return nil, notFound(path)
	}
	return append([]byte(nil), data...), nil
}
