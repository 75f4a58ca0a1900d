package policy

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/steveyegge/stale/internal/tracker"
	"github.com/steveyegge/stale/internal/tracker/memory"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name string
		data string
		want map[string]any
	}{
		{"empty", "", map[string]any{}},
		{"comments only", "# nothing here\n", map[string]any{}},
		{"flat", "daysUntilStale: 10\nstaleLabel: stale\n", map[string]any{"daysUntilStale": 10, "staleLabel": "stale"}},
		{"wrapped", "stale:\n  daysUntilClose: false\n", map[string]any{"daysUntilClose": false}},
		{"list", "exemptLabels:\n  - pinned\n", map[string]any{"exemptLabels": []any{"pinned"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDocument([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseDocument: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}

	if _, err := ParseDocument([]byte("- a\n- b\n")); err == nil {
		t.Error("expected error for a top-level sequence")
	}
	if _, err := ParseDocument([]byte("a: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestParseTOMLDocument(t *testing.T) {
	raw, err := ParseTOMLDocument([]byte(`
daysUntilStale = 45
exemptLabels = ["pinned"]

[pulls]
daysUntilClose = false
`))
	if err != nil {
		t.Fatalf("ParseTOMLDocument: %v", err)
	}
	cfg, err := NewResolver(true, nil).Validate(raw, "o", "r")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Settings.DaysUntilStale != 45 {
		t.Errorf("DaysUntilStale = %v", cfg.Settings.DaysUntilStale)
	}
	if cfg.For(Pulls).DaysUntilClose.Enabled {
		t.Error("pulls daysUntilClose should be disabled")
	}
}

func newLoader(mt *memory.Tracker) *Loader {
	return &Loader{Fetcher: mt, Resolver: NewResolver(true, nil)}
}

func TestLoad_MissingConfigDisables(t *testing.T) {
	mt := memory.New()
	cfg := newLoader(mt).Load(context.Background(), "o", "r")
	if cfg.Settings.Perform {
		t.Error("missing config must resolve to perform=false")
	}
	if cfg.FullName() != "o/r" {
		t.Errorf("FullName = %q", cfg.FullName())
	}

	_, err := newLoader(mt).Document(context.Background(), "o", "r")
	if !errors.Is(err, ErrNoConfig) || !tracker.IsNotFound(err) {
		t.Errorf("Document error = %v, want ErrNoConfig wrapping not found", err)
	}
}

func TestLoad_FetchFailureDisables(t *testing.T) {
	mt := memory.New()
	mt.SetFile("o", "r", DefaultPath, []byte("daysUntilStale: 1"))
	mt.FailOn("get-contents", func(int) error { return errors.New("boom") })

	if cfg := newLoader(mt).Load(context.Background(), "o", "r"); cfg.Settings.Perform {
		t.Error("fetch failure must resolve to perform=false")
	}
}

func TestLoad_MalformedDocumentDisables(t *testing.T) {
	mt := memory.New()
	mt.SetFile("o", "r", DefaultPath, []byte("daysUntilStale: [\n"))
	if cfg := newLoader(mt).Load(context.Background(), "o", "r"); cfg.Settings.Perform {
		t.Error("malformed document must resolve to perform=false")
	}
}

func TestLoad_ResolvesDocument(t *testing.T) {
	mt := memory.New()
	mt.SetFile("o", "r", DefaultPath, []byte("stale:\n  daysUntilStale: 3\n  staleLabel: stale\n"))

	cfg := newLoader(mt).Load(context.Background(), "o", "r")
	if !cfg.Settings.Perform || cfg.Settings.DaysUntilStale != 3 || cfg.Settings.StaleLabel != "stale" {
		t.Errorf("Settings = %+v", cfg.Settings)
	}
}

func TestLoad_CustomPath(t *testing.T) {
	mt := memory.New()
	mt.SetFile("o", "r", ".github/bot.yml", []byte("limitPerRun: 5\n"))
	l := newLoader(mt)
	l.Path = ".github/bot.yml"

	if cfg := l.Load(context.Background(), "o", "r"); cfg.Settings.LimitPerRun != 5 {
		t.Errorf("LimitPerRun = %d", cfg.Settings.LimitPerRun)
	}
}

func TestLoad_Extends(t *testing.T) {
	mt := memory.New()
	mt.SetFile("o", ".github", DefaultPath, []byte(
		"daysUntilStale: 90\nstaleLabel: base-stale\n_extends: elsewhere\n"))
	mt.SetFile("shared", "policies", DefaultPath, []byte("daysUntilClose: false\n"))
	mt.SetFile("o", "r", DefaultPath, []byte("_extends: .github\nstaleLabel: local\n"))
	mt.SetFile("o", "r2", DefaultPath, []byte("_extends: shared/policies\n"))

	l := newLoader(mt)
	cfg := l.Load(context.Background(), "o", "r")
	if cfg.Settings.DaysUntilStale != 90 {
		t.Errorf("base value not inherited: %v", cfg.Settings.DaysUntilStale)
	}
	if cfg.Settings.StaleLabel != "local" {
		t.Errorf("local value should win: %q", cfg.Settings.StaleLabel)
	}
	if cfg.Extends != ".github" {
		t.Errorf("Extends = %q", cfg.Extends)
	}

	cfg = l.Load(context.Background(), "o", "r2")
	if cfg.Settings.DaysUntilClose.Enabled {
		t.Error("owner/repo form of _extends not followed")
	}
}

func TestLoad_ExtendsMissingBaseKeepsLocal(t *testing.T) {
	mt := memory.New()
	mt.SetFile("o", "r", DefaultPath, []byte("_extends: gone\ndaysUntilStale: 4\n"))

	cfg := newLoader(mt).Load(context.Background(), "o", "r")
	if !cfg.Settings.Perform || cfg.Settings.DaysUntilStale != 4 {
		t.Errorf("Settings = %+v", cfg.Settings)
	}
}

func TestExtend_LocalDocument(t *testing.T) {
	mt := memory.New()
	mt.SetFile("o", ".github", DefaultPath, []byte("daysUntilStale: 90\nstaleLabel: base-stale\n"))
	l := newLoader(mt)

	doc := l.Extend(context.Background(), "o", "r", map[string]any{"_extends": ".github", "staleLabel": "local"})
	if doc["daysUntilStale"] != 90 || doc["staleLabel"] != "local" {
		t.Errorf("merged = %#v", doc)
	}

	plain := map[string]any{"daysUntilStale": 3}
	if got := l.Extend(context.Background(), "o", "r", plain); !reflect.DeepEqual(got, plain) {
		t.Errorf("document without _extends changed: %#v", got)
	}
	if len(mt.CallsFor("get-contents")) != 1 {
		t.Errorf("get-contents calls = %d, want 1", len(mt.CallsFor("get-contents")))
	}
}
