package stale

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/tracker"
)

// ConfigSource resolves the configuration for a repository.
// *policy.Loader satisfies it.
type ConfigSource interface {
	Load(ctx context.Context, owner, repo string) *policy.Config
}

// ConfigFunc adapts a function to ConfigSource.
type ConfigFunc func(ctx context.Context, owner, repo string) *policy.Config

// Load implements ConfigSource.
func (f ConfigFunc) Load(ctx context.Context, owner, repo string) *policy.Config {
	return f(ctx, owner, repo)
}

// Activity is an inbound event on an issue or pull request.
type Activity struct {
	Action     string // e.g. "created", "labeled", "submitted"
	Owner      string
	Repo       string
	Label      string // label name for labeled/unlabeled events
	Sender     string
	SenderType string // "User" or "Bot"
	Type       policy.ItemType
	Item       tracker.Item
	// LabelsKnown is false when the payload carried no label data and the
	// item must be fetched before deciding.
	LabelsKnown bool
}

// ShouldUnmark decides whether activity a removes the stale label: the item
// is open, carries the label, and the event is not the label being added.
func ShouldUnmark(s policy.Settings, a Activity) bool {
	if a.Item.IsClosed() || !s.HasStaleLabel(a.Item.Labels) {
		return false
	}
	staleLabelJustAdded := a.Action == "labeled" && a.Label == s.StaleLabel
	return !staleLabelJustAdded
}

// Guard removes the stale mark when an item sees activity.
type Guard struct {
	Configs  ConfigSource
	Remote   tracker.Remote
	BotLogin string // the automation's own login; its events are ignored
	Logger   *slog.Logger
	Options  []Option
}

func (g *Guard) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return g.Logger
}

// IsSelf reports whether the activity was caused by a bot account, including
// the automation itself.
func (g *Guard) IsSelf(a Activity) bool {
	return a.SenderType == "Bot" || (g.BotLogin != "" && a.Sender == g.BotLogin)
}

// Handle applies the unmark decision to a. It reports whether the stale label
// was actually removed.
func (g *Guard) Handle(ctx context.Context, a Activity) (bool, error) {
	log := g.logger().With("repo", a.Owner+"/"+a.Repo, "number", a.Item.Number, "action", a.Action)
	if g.IsSelf(a) {
		log.Debug("ignoring activity from bot", "sender", a.Sender)
		return false, nil
	}

	cfg := g.Configs.Load(ctx, a.Owner, a.Repo)
	if !cfg.AppliesTo(a.Type) {
		return false, nil
	}

	if !a.LabelsKnown {
		item, err := g.Remote.GetItem(ctx, a.Owner, a.Repo, a.Item.Number)
		if err != nil {
			return false, fmt.Errorf("fetch #%d: %w", a.Item.Number, err)
		}
		a.Item = *item
		a.LabelsKnown = true
	}

	if !ShouldUnmark(cfg.For(a.Type), a) {
		return false, nil
	}
	return New(g.Remote, cfg, g.Logger, g.Options...).Unmark(ctx, a.Type, a.Item)
}
