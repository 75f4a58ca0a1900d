package policy

import (
	"io"
	"log/slog"
)

// Resolver turns raw configuration documents into Configs.
type Resolver struct {
	perform bool
	logger  *slog.Logger
}

// NewResolver creates a resolver. perform is the default for the `perform`
// option; a nil logger discards warnings.
func NewResolver(perform bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{perform: perform, logger: logger}
}

// Resolve validates raw and returns a fully populated Config. It never fails:
// each rejected field is logged and replaced by its default, valid siblings
// are kept, and owner and repo are always attached. Per-type sections keep
// exactly the valid keys they were given.
func (r *Resolver) Resolve(raw map[string]any, owner, repo string) *Config {
	cfg, errs := r.build(raw, owner, repo)
	for _, fe := range errs {
		r.logger.Warn("invalid stale configuration field, using default",
			"repo", cfg.FullName(),
			"field", fe.Path,
			"error", fe.Message)
	}
	return cfg
}

// Validate is the strict form of Resolve: it returns a *ValidationError
// listing every rejected field instead of degrading.
func (r *Resolver) Validate(raw map[string]any, owner, repo string) (*Config, error) {
	cfg, errs := r.build(raw, owner, repo)
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

func (r *Resolver) build(raw map[string]any, owner, repo string) (*Config, []FieldError) {
	doc, errs := parseDocument(raw)
	return &Config{
		Owner:    owner,
		Repo:     repo,
		Settings: doc.options.apply(Defaults(r.perform)),
		Only:     doc.only,
		Extends:  doc.extends,
		Pulls:    doc.pulls,
		Issues:   doc.issues,
	}, errs
}
