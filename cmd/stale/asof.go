package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/stale/internal/timeparsing"
)

// parseAsOf resolves an --as-of value relative to now; empty means now.
func parseAsOf(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return now, nil
	}
	t, err := timeparsing.ParseRelativeTime(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of: %w", err)
	}
	return t, nil
}
