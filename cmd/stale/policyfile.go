package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/steveyegge/stale/internal/policy"
)

// readPolicyFile parses a local policy document. Files ending in .toml are
// read as TOML, everything else as YAML.
func readPolicyFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path supplied by the operator
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		doc, err = policy.ParseTOMLDocument(data)
	} else {
		doc, err = policy.ParseDocument(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
