package policy

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// documentRoot is the optional top-level key that wraps the options.
const documentRoot = "stale"

// ParseDocument decodes a YAML configuration document. An empty document
// yields an empty mapping; a top-level `stale:` mapping is unwrapped.
func ParseDocument(data []byte) (map[string]any, error) {
	var raw any
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	return rootMapping(raw)
}

// ParseTOMLDocument decodes a TOML configuration document with the same
// unwrapping rules as ParseDocument.
func ParseTOMLDocument(data []byte) (map[string]any, error) {
	raw := map[string]any{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return rootMapping(raw)
}

func rootMapping(raw any) (map[string]any, error) {
	if raw == nil {
		return map[string]any{}, nil
	}
	m, ok := asMap(raw)
	if !ok {
		return nil, fmt.Errorf("parsing config: top level must be a mapping, got %T", raw)
	}
	if inner, ok := asMap(m[documentRoot]); ok && len(m) == 1 {
		return inner, nil
	}
	return m, nil
}
