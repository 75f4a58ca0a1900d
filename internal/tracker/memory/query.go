package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/stale/internal/tracker"
)

// searchTimeLayout is the truncated ISO-8601 format used in updated:< qualifiers.
const searchTimeLayout = "2006-01-02T15:04:05"

// Query is a parsed search string.
type Query struct {
	Repo          string
	State         tracker.State // "" = any
	PullRequest   *bool         // nil = both
	Locked        *bool         // nil = either
	Labels        []string      // all required
	ExcludeLabels []string
	UpdatedBefore *time.Time
	NoMilestone   bool
	NoAssignee    bool
	NoProject     bool
	Terms         []string // free text, ignored when matching
}

// Parse interprets the qualifiers produced by the query package.
func Parse(s string) (*Query, error) {
	q := &Query{}
	for _, tok := range tokenize(s) {
		negated := strings.HasPrefix(tok, "-")
		body := strings.TrimPrefix(tok, "-")
		key, val, hasColon := strings.Cut(body, ":")
		if !hasColon {
			q.Terms = append(q.Terms, tok)
			continue
		}
		val = strings.Trim(val, `"`)

		switch key {
		case "repo":
			q.Repo = val
		case "is":
			if err := q.applyIs(val); err != nil {
				return nil, err
			}
		case "label":
			if negated {
				q.ExcludeLabels = append(q.ExcludeLabels, val)
			} else {
				q.Labels = append(q.Labels, val)
			}
		case "no":
			switch val {
			case "milestone":
				q.NoMilestone = true
			case "assignee":
				q.NoAssignee = true
			case "project":
				q.NoProject = true
			default:
				return nil, fmt.Errorf("unsupported qualifier no:%s", val)
			}
		case "updated":
			if !strings.HasPrefix(val, "<") {
				return nil, fmt.Errorf("unsupported updated qualifier %q", val)
			}
			ts, err := time.Parse(searchTimeLayout, strings.TrimPrefix(val, "<"))
			if err != nil {
				return nil, fmt.Errorf("invalid updated timestamp %q: %w", val, err)
			}
			q.UpdatedBefore = &ts
		default:
			q.Terms = append(q.Terms, tok)
		}
	}
	if q.Repo == "" {
		return nil, fmt.Errorf("query %q has no repo: qualifier", s)
	}
	return q, nil
}

func (q *Query) applyIs(val string) error {
	yes, no := true, false
	switch val {
	case "open":
		q.State = tracker.StateOpen
	case "closed":
		q.State = tracker.StateClosed
	case "pr":
		q.PullRequest = &yes
	case "issue":
		q.PullRequest = &no
	case "locked":
		q.Locked = &yes
	case "unlocked":
		q.Locked = &no
	default:
		return fmt.Errorf("unsupported qualifier is:%s", val)
	}
	return nil
}

// Matches reports whether the item satisfies every qualifier.
func (q *Query) Matches(it *tracker.Item) bool {
	if q.State != "" && it.State != q.State {
		return false
	}
	if q.PullRequest != nil && it.PullRequest != *q.PullRequest {
		return false
	}
	if q.Locked != nil && it.Locked != *q.Locked {
		return false
	}
	for _, l := range q.Labels {
		if !it.HasLabel(l) {
			return false
		}
	}
	for _, l := range q.ExcludeLabels {
		if it.HasLabel(l) {
			return false
		}
	}
	if q.UpdatedBefore != nil && !it.UpdatedAt.Before(*q.UpdatedBefore) {
		return false
	}
	if q.NoMilestone && it.HasMilestone {
		return false
	}
	if q.NoAssignee && it.HasAssignees {
		return false
	}
	if q.NoProject && it.InProject {
		return false
	}
	return true
}

// tokenize splits on spaces outside double quotes.
func tokenize(s string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ' ' && !inQuote:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
