// Package policy resolves a repository's stale configuration document into an
// immutable Config and answers per-item-type lookups against it.
package policy

import (
	"fmt"
	"slices"
)

// ItemType selects which kind of item a type-scoped operation applies to.
type ItemType string

const (
	Issues ItemType = "issues"
	Pulls  ItemType = "pulls"
)

// ParseItemType converts a user-supplied string into an ItemType.
func ParseItemType(s string) (ItemType, error) {
	switch ItemType(s) {
	case Issues, Pulls:
		return ItemType(s), nil
	}
	return "", fmt.Errorf("invalid item type %q (expected issues or pulls)", s)
}

// mustValid panics on an unknown type. Callers construct ItemType from the
// constants or ParseItemType, so anything else is a programming error.
func (t ItemType) mustValid() {
	if t != Issues && t != Pulls {
		panic(fmt.Sprintf("policy: unknown item type %q", string(t)))
	}
}

// Comment is a comment body that may be disabled with `false`.
type Comment struct {
	Text    string
	Enabled bool
}

// CommentText returns an enabled comment.
func CommentText(s string) Comment { return Comment{Text: s, Enabled: true} }

// Days is a day threshold that may be disabled.
type Days struct {
	Value   float64
	Enabled bool
}

// After returns an enabled threshold.
func After(days float64) Days { return Days{Value: days, Enabled: true} }

// Settings is the flat, fully resolved view of the options for one item type.
type Settings struct {
	DaysUntilStale   float64
	DaysUntilClose   Days
	DaysUntilLock    Days
	StaleLabel       string
	ClosedLabel      string // "" when disabled
	ExemptLabels     []string
	OnlyLabels       []string
	ExemptProjects   bool
	ExemptMilestones bool
	ExemptAssignees  bool
	MarkComment      Comment
	UnmarkComment    Comment
	CloseComment     Comment
	LimitPerRun      int
	Perform          bool
}

func (s Settings) clone() Settings {
	s.ExemptLabels = slices.Clone(s.ExemptLabels)
	s.OnlyLabels = slices.Clone(s.OnlyLabels)
	return s
}

// Overrides holds the keys present in a `pulls` or `issues` section.
// A nil field means the key was absent and the top-level value applies.
type Overrides struct {
	DaysUntilStale   *float64
	DaysUntilClose   *Days
	DaysUntilLock    *Days
	StaleLabel       *string
	ClosedLabel      *string
	ExemptLabels     *[]string
	OnlyLabels       *[]string
	ExemptProjects   *bool
	ExemptMilestones *bool
	ExemptAssignees  *bool
	MarkComment      *Comment
	UnmarkComment    *Comment
	CloseComment     *Comment
	LimitPerRun      *int
	Perform          *bool
}

// Keys returns the option names present in the section, in schema order.
func (o *Overrides) Keys() []string {
	if o == nil {
		return nil
	}
	var keys []string
	for _, k := range optionKeys {
		if _, ok := o.value(k); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (o *Overrides) apply(s Settings) Settings {
	if o == nil {
		return s
	}
	if o.DaysUntilStale != nil {
		s.DaysUntilStale = *o.DaysUntilStale
	}
	if o.DaysUntilClose != nil {
		s.DaysUntilClose = *o.DaysUntilClose
	}
	if o.DaysUntilLock != nil {
		s.DaysUntilLock = *o.DaysUntilLock
	}
	if o.StaleLabel != nil {
		s.StaleLabel = *o.StaleLabel
	}
	if o.ClosedLabel != nil {
		s.ClosedLabel = *o.ClosedLabel
	}
	if o.ExemptLabels != nil {
		s.ExemptLabels = slices.Clone(*o.ExemptLabels)
	}
	if o.OnlyLabels != nil {
		s.OnlyLabels = slices.Clone(*o.OnlyLabels)
	}
	if o.ExemptProjects != nil {
		s.ExemptProjects = *o.ExemptProjects
	}
	if o.ExemptMilestones != nil {
		s.ExemptMilestones = *o.ExemptMilestones
	}
	if o.ExemptAssignees != nil {
		s.ExemptAssignees = *o.ExemptAssignees
	}
	if o.MarkComment != nil {
		s.MarkComment = *o.MarkComment
	}
	if o.UnmarkComment != nil {
		s.UnmarkComment = *o.UnmarkComment
	}
	if o.CloseComment != nil {
		s.CloseComment = *o.CloseComment
	}
	if o.LimitPerRun != nil {
		s.LimitPerRun = *o.LimitPerRun
	}
	if o.Perform != nil {
		s.Perform = *o.Perform
	}
	return s
}

// value returns the override for key in its document representation.
func (o *Overrides) value(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	switch key {
	case KeyDaysUntilStale:
		if o.DaysUntilStale != nil {
			return *o.DaysUntilStale, true
		}
	case KeyDaysUntilClose:
		if o.DaysUntilClose != nil {
			return daysValue(*o.DaysUntilClose), true
		}
	case KeyDaysUntilLock:
		if o.DaysUntilLock != nil {
			return daysValue(*o.DaysUntilLock), true
		}
	case KeyStaleLabel:
		if o.StaleLabel != nil {
			return *o.StaleLabel, true
		}
	case KeyClosedLabel:
		if o.ClosedLabel != nil {
			return labelValue(*o.ClosedLabel), true
		}
	case KeyExemptLabels:
		if o.ExemptLabels != nil {
			return slices.Clone(*o.ExemptLabels), true
		}
	case KeyOnlyLabels:
		if o.OnlyLabels != nil {
			return slices.Clone(*o.OnlyLabels), true
		}
	case KeyExemptProjects:
		if o.ExemptProjects != nil {
			return *o.ExemptProjects, true
		}
	case KeyExemptMilestones:
		if o.ExemptMilestones != nil {
			return *o.ExemptMilestones, true
		}
	case KeyExemptAssignees:
		if o.ExemptAssignees != nil {
			return *o.ExemptAssignees, true
		}
	case KeyMarkComment:
		if o.MarkComment != nil {
			return commentValue(*o.MarkComment), true
		}
	case KeyUnmarkComment:
		if o.UnmarkComment != nil {
			return commentValue(*o.UnmarkComment), true
		}
	case KeyCloseComment:
		if o.CloseComment != nil {
			return commentValue(*o.CloseComment), true
		}
	case KeyLimitPerRun:
		if o.LimitPerRun != nil {
			return *o.LimitPerRun, true
		}
	case KeyPerform:
		if o.Perform != nil {
			return *o.Perform, true
		}
	}
	return nil, false
}

// Config is the resolved configuration for one repository. It is produced once
// by a Resolver and never modified afterwards.
type Config struct {
	Owner    string
	Repo     string
	Settings Settings
	Only     ItemType // "" when unrestricted
	Extends  string
	Pulls    *Overrides
	Issues   *Overrides
}

// FullName returns "owner/repo".
func (c *Config) FullName() string {
	return c.Owner + "/" + c.Repo
}

func (c *Config) overrides(t ItemType) *Overrides {
	t.mustValid()
	if t == Pulls {
		return c.Pulls
	}
	return c.Issues
}

// For returns the settings that apply to items of type t: the per-type value
// where the section defines the key, otherwise the resolved top-level value.
func (c *Config) For(t ItemType) Settings {
	return c.overrides(t).apply(c.Settings.clone())
}

// Value looks up a single option by its document name using the same
// two-level rule as For. It reports false for unknown keys.
func (c *Config) Value(t ItemType, key string) (any, bool) {
	if v, ok := c.overrides(t).value(key); ok {
		return v, true
	}
	return c.Settings.value(key)
}

// AppliesTo reports whether the `only` restriction permits type t.
func (c *Config) AppliesTo(t ItemType) bool {
	t.mustValid()
	return c.Only == "" || c.Only == t
}

func (s Settings) value(key string) (any, bool) {
	switch key {
	case KeyDaysUntilStale:
		return s.DaysUntilStale, true
	case KeyDaysUntilClose:
		return daysValue(s.DaysUntilClose), true
	case KeyDaysUntilLock:
		return daysValue(s.DaysUntilLock), true
	case KeyStaleLabel:
		return s.StaleLabel, true
	case KeyClosedLabel:
		return labelValue(s.ClosedLabel), true
	case KeyExemptLabels:
		return slices.Clone(s.ExemptLabels), true
	case KeyOnlyLabels:
		return slices.Clone(s.OnlyLabels), true
	case KeyExemptProjects:
		return s.ExemptProjects, true
	case KeyExemptMilestones:
		return s.ExemptMilestones, true
	case KeyExemptAssignees:
		return s.ExemptAssignees, true
	case KeyMarkComment:
		return commentValue(s.MarkComment), true
	case KeyUnmarkComment:
		return commentValue(s.UnmarkComment), true
	case KeyCloseComment:
		return commentValue(s.CloseComment), true
	case KeyLimitPerRun:
		return s.LimitPerRun, true
	case KeyPerform:
		return s.Perform, true
	}
	return nil, false
}

func daysValue(d Days) any {
	if !d.Enabled {
		return false
	}
	return d.Value
}

func commentValue(c Comment) any {
	if !c.Enabled {
		return false
	}
	return c.Text
}

func labelValue(l string) any {
	if l == "" {
		return false
	}
	return l
}
