// Package query builds the tracker search requests for each phase of a
// mark-and-sweep run.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/tracker"
)

// TimestampLayout is the truncated ISO-8601 form the search API accepts:
// whole seconds, no zone designator.
const TimestampLayout = "2006-01-02T15:04:05"

const msPerDay = 86400000

// Cutoff returns now minus the given number of days, clamped at the Unix epoch.
func Cutoff(now time.Time, days float64) time.Time {
	nowMs := now.UnixMilli()
	delta := days * msPerDay
	if delta >= float64(nowMs) {
		return time.UnixMilli(0).UTC()
	}
	return time.UnixMilli(nowMs - int64(delta)).UTC()
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Builder produces the search requests for one repository and item type.
type Builder struct {
	Owner    string
	Repo     string
	Type     policy.ItemType
	Settings policy.Settings
	Now      time.Time
}

// Search builds `repo:{owner}/{repo} is:open updated:<{cutoff} {fragment} {type}`
// sorted by most recently updated. perPage is capped at the API page limit.
func (b Builder) Search(days float64, fragment string, perPage int) tracker.SearchRequest {
	parts := []string{
		"repo:" + b.Owner + "/" + b.Repo,
		"is:open",
		"updated:<" + FormatTimestamp(Cutoff(b.Now, days)),
	}
	if fragment = strings.TrimSpace(fragment); fragment != "" {
		parts = append(parts, fragment)
	}
	parts = append(parts, b.typeQualifier())
	return request(strings.Join(parts, " "), perPage)
}

// Stale returns the stale-candidate searches. The search syntax ANDs terms,
// so each onlyLabels entry gets its own request; callers union the results.
func (b Builder) Stale(perPage int) []tracker.SearchRequest {
	s := b.Settings
	var terms []string
	terms = append(terms, "-label:"+quote(s.StaleLabel))
	for _, l := range s.ExemptLabels {
		terms = append(terms, "-label:"+quote(l))
	}
	if s.ExemptProjects {
		terms = append(terms, "no:project")
	}
	if s.ExemptMilestones {
		terms = append(terms, "no:milestone")
	}
	if s.ExemptAssignees {
		terms = append(terms, "no:assignee")
	}
	base := strings.Join(terms, " ")

	if len(s.OnlyLabels) == 0 {
		return []tracker.SearchRequest{b.Search(s.DaysUntilStale, base, perPage)}
	}
	reqs := make([]tracker.SearchRequest, 0, len(s.OnlyLabels))
	for _, l := range s.OnlyLabels {
		reqs = append(reqs, b.Search(s.DaysUntilStale, "label:"+quote(l)+" "+base, perPage))
	}
	return reqs
}

// Closable returns the search for stale-labeled items past daysUntilClose.
func (b Builder) Closable(perPage int) tracker.SearchRequest {
	return b.Search(b.Settings.DaysUntilClose.Value, "label:"+quote(b.Settings.StaleLabel), perPage)
}

// Lockable returns the search for closed, unlocked, stale-labeled items past
// daysUntilLock.
func (b Builder) Lockable(perPage int) tracker.SearchRequest {
	q := fmt.Sprintf("repo:%s/%s is:closed is:unlocked label:%s updated:<%s %s",
		b.Owner, b.Repo,
		quote(b.Settings.StaleLabel),
		FormatTimestamp(Cutoff(b.Now, b.Settings.DaysUntilLock.Value)),
		b.typeQualifier())
	return request(q, perPage)
}

func (b Builder) typeQualifier() string {
	switch b.Type {
	case policy.Pulls:
		return "is:pr"
	case policy.Issues:
		return "is:issue"
	}
	panic(fmt.Sprintf("query: unknown item type %q", string(b.Type)))
}

func request(q string, perPage int) tracker.SearchRequest {
	return tracker.SearchRequest{
		Query:   q,
		Sort:    "updated",
		Order:   "desc",
		PerPage: PageSize(perPage),
	}
}

// PageSize bounds perPage to [0, policy.MaxLimitPerRun].
func PageSize(perPage int) int {
	return max(0, min(perPage, policy.MaxLimitPerRun))
}

func quote(label string) string {
	return `"` + strings.ReplaceAll(label, `"`, "") + `"`
}
