package main

import (
	"time"

	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/tracker"
	"github.com/steveyegge/stale/internal/tracker/memory"
)

const (
	demoOwner = "demo"
	demoRepo  = "project"
)

const demoPolicy = `daysUntilStale: 60
daysUntilClose: 7
daysUntilLock: 30
exemptLabels:
  - pinned
  - security
staleLabel: stale
markComment: >
  This issue has been automatically marked as stale because it has not had
  recent activity. It will be closed if no further activity occurs.
  Items labeled %EXEMPT_LABELS% are never marked.
closeComment: false
pulls:
  daysUntilStale: 30
  markComment: This pull request has been automatically marked as stale.
`

// newDemoTracker returns an in-memory repository with a policy file and a
// handful of items at various stages of inactivity relative to now.
func newDemoTracker(now time.Time) *memory.Tracker {
	mt := memory.New()
	mt.Now = func() time.Time { return now }
	daysAgo := func(d int) time.Time { return now.AddDate(0, 0, -d) }

	mt.SetFile(demoOwner, demoRepo, policy.DefaultPath, []byte(demoPolicy))
	items := []tracker.Item{
		{Number: 1, Title: "Crash on startup with empty config", UpdatedAt: daysAgo(90)},
		{Number: 2, Title: "Support dark mode", UpdatedAt: daysAgo(120), Labels: []string{"pinned"}},
		{Number: 3, Title: "Docs typo", UpdatedAt: daysAgo(10), Labels: []string{"stale"}},
		{Number: 4, Title: "Flaky test in CI", UpdatedAt: daysAgo(5)},
		{Number: 5, Title: "Refactor parser", UpdatedAt: daysAgo(45), PullRequest: true},
		{Number: 6, Title: "Old question", UpdatedAt: daysAgo(40), State: tracker.StateClosed, Labels: []string{"stale"}},
		{Number: 7, Title: "Token leak in logs", UpdatedAt: daysAgo(200), Labels: []string{"security"}},
	}
	for _, it := range items {
		mt.AddItem(demoOwner, demoRepo, it)
	}
	return mt
}
