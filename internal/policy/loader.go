package policy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/steveyegge/stale/internal/tracker"
)

// DefaultPath is where the configuration document lives in a repository.
const DefaultPath = ".github/stale.yml"

// ErrNoConfig means no usable configuration document could be read. Load
// answers it with Disabled rather than acting with defaults.
var ErrNoConfig = errors.New("no stale configuration")

// Loader fetches and resolves a repository's configuration document.
type Loader struct {
	Fetcher  tracker.ContentFetcher
	Path     string // defaults to DefaultPath
	Resolver *Resolver
	Logger   *slog.Logger
}

func (l *Loader) path() string {
	if l.Path == "" {
		return DefaultPath
	}
	return l.Path
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.Logger
}

// Load returns the resolved configuration for owner/repo. When the document is
// missing, unreadable or unparsable the repository is disabled.
func (l *Loader) Load(ctx context.Context, owner, repo string) *Config {
	raw, err := l.Document(ctx, owner, repo)
	if err != nil {
		l.logger().Info("stale disabled for repository", "repo", owner+"/"+repo, "reason", err)
		return Disabled(owner, repo)
	}
	return l.Resolver.Resolve(raw, owner, repo)
}

// Document fetches the raw document for owner/repo, merging in the repository
// named by `_extends`. Errors wrap ErrNoConfig.
func (l *Loader) Document(ctx context.Context, owner, repo string) (map[string]any, error) {
	raw, err := l.fetch(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	return l.Extend(ctx, owner, repo, raw), nil
}

// Extend merges the repository named by raw's `_extends` under raw. A base
// that cannot be read is logged and raw is returned unchanged.
func (l *Loader) Extend(ctx context.Context, owner, repo string, raw map[string]any) map[string]any {
	ext, ok := raw[KeyExtends].(string)
	if !ok || ext == "" {
		return raw
	}

	baseOwner, baseRepo := splitExtends(ext, owner)
	base, err := l.fetch(ctx, baseOwner, baseRepo)
	if err != nil {
		l.logger().Warn("ignoring _extends", "repo", owner+"/"+repo, "extends", ext, "error", err)
		return raw
	}
	return mergeDocuments(base, raw)
}

func (l *Loader) fetch(ctx context.Context, owner, repo string) (map[string]any, error) {
	data, err := l.Fetcher.GetContents(ctx, owner, repo, l.path())
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s %s: %w", ErrNoConfig, owner, repo, l.path(), err)
	}
	raw, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s %s: %w", ErrNoConfig, owner, repo, l.path(), err)
	}
	return raw, nil
}

// splitExtends resolves "repo" or "owner/repo" relative to owner.
func splitExtends(ext, owner string) (string, string) {
	if o, r, ok := strings.Cut(ext, "/"); ok {
		return o, r
	}
	return owner, ext
}

// mergeDocuments overlays local on base one level deep. The base document's
// own _extends is not followed.
func mergeDocuments(base, local map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(local))
	for k, v := range base {
		if k == KeyExtends {
			continue
		}
		merged[k] = v
	}
	for k, v := range local {
		merged[k] = v
	}
	return merged
}
