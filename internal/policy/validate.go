package policy

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// FieldError is one rejected field of a configuration document.
type FieldError struct {
	Path    string // option name, "pulls.<key>" or "issues.<key>" inside a section
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%q %s", e.Path, e.Message)
}

// ValidationError lists every rejected field of a document.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Error()
	}
	return "invalid stale configuration: " + strings.Join(parts, "; ")
}

const (
	msgNotAllowed    = "is not allowed"
	msgNumber        = "must be a number"
	msgNonNegative   = "must be greater than or equal to 0"
	msgNumberOrFalse = "must be a number or false"
	msgString        = "must be a string"
	msgEmpty         = "is not allowed to be empty"
	msgStringOrFalse = "must be a string or false"
	msgArray         = "must be an array"
	msgBoolean       = "must be a boolean"
	msgLimit         = "must be an integer between 1 and 30"
	msgOnly          = "must be one of [issues, pulls, null]"
	msgObject        = "must be an object"
)

// document is the validated form of a raw configuration mapping. Only fields
// that passed validation are set.
type document struct {
	options Overrides
	only    ItemType
	extends string
	pulls   *Overrides
	issues  *Overrides
}

// parseDocument validates raw field by field. Rejected fields are reported and
// left unset; valid siblings are kept.
func parseDocument(raw map[string]any) (document, []FieldError) {
	var (
		doc  document
		errs []FieldError
	)
	for _, key := range sortedKeys(raw) {
		v := raw[key]
		switch key {
		case KeyOnly:
			only, msg := parseOnly(v)
			if msg != "" {
				errs = append(errs, FieldError{Path: key, Message: msg})
				continue
			}
			doc.only = only
		case KeyExtends:
			s, ok := v.(string)
			if !ok || s == "" {
				errs = append(errs, FieldError{Path: key, Message: msgString})
				continue
			}
			doc.extends = s
		case KeyPulls, KeyIssues:
			section, sectionErrs := parseSection(key, v)
			errs = append(errs, sectionErrs...)
			if key == KeyPulls {
				doc.pulls = section
			} else {
				doc.issues = section
			}
		default:
			if msg := parseOption(&doc.options, key, v); msg != "" {
				errs = append(errs, FieldError{Path: key, Message: msg})
			}
		}
	}
	return doc, errs
}

// parseSection validates a per-type section. A section that is not a mapping
// is rejected whole; invalid keys inside a mapping are dropped individually.
func parseSection(name string, v any) (*Overrides, []FieldError) {
	m, ok := asMap(v)
	if !ok {
		return nil, []FieldError{{Path: name, Message: msgObject}}
	}
	o := &Overrides{}
	var errs []FieldError
	for _, key := range sortedKeys(m) {
		if msg := parseOption(o, key, m[key]); msg != "" {
			errs = append(errs, FieldError{Path: name + "." + key, Message: msg})
		}
	}
	return o, errs
}

// parseOption sets one option on o. It returns a non-empty message when the
// key is unknown or the value is rejected.
func parseOption(o *Overrides, key string, v any) string {
	switch key {
	case KeyDaysUntilStale:
		n, msg := parseNumber(v)
		if msg != "" {
			return msg
		}
		o.DaysUntilStale = &n
	case KeyDaysUntilClose, KeyDaysUntilLock:
		d, msg := parseDays(v)
		if msg != "" {
			return msg
		}
		if key == KeyDaysUntilClose {
			o.DaysUntilClose = &d
		} else {
			o.DaysUntilLock = &d
		}
	case KeyStaleLabel:
		s, ok := v.(string)
		if !ok {
			return msgString
		}
		if s == "" {
			return msgEmpty
		}
		o.StaleLabel = &s
	case KeyClosedLabel:
		c, msg := parseStringOrFalse(v)
		if msg != "" {
			return msg
		}
		label := c.Text
		o.ClosedLabel = &label
	case KeyMarkComment, KeyUnmarkComment, KeyCloseComment:
		c, msg := parseStringOrFalse(v)
		if msg != "" {
			return msg
		}
		switch key {
		case KeyMarkComment:
			o.MarkComment = &c
		case KeyUnmarkComment:
			o.UnmarkComment = &c
		default:
			o.CloseComment = &c
		}
	case KeyExemptLabels, KeyOnlyLabels:
		labels, msg := parseLabels(v)
		if msg != "" {
			return msg
		}
		if key == KeyExemptLabels {
			o.ExemptLabels = &labels
		} else {
			o.OnlyLabels = &labels
		}
	case KeyExemptProjects, KeyExemptMilestones, KeyExemptAssignees, KeyPerform:
		b, ok := v.(bool)
		if !ok {
			return msgBoolean
		}
		switch key {
		case KeyExemptProjects:
			o.ExemptProjects = &b
		case KeyExemptMilestones:
			o.ExemptMilestones = &b
		case KeyExemptAssignees:
			o.ExemptAssignees = &b
		default:
			o.Perform = &b
		}
	case KeyLimitPerRun:
		n, ok := toNumber(v)
		if !ok || n != math.Trunc(n) || n < 1 || n > MaxLimitPerRun {
			return msgLimit
		}
		limit := int(n)
		o.LimitPerRun = &limit
	default:
		return msgNotAllowed
	}
	return ""
}

func parseNumber(v any) (float64, string) {
	n, ok := toNumber(v)
	if !ok {
		return 0, msgNumber
	}
	if n < 0 {
		return 0, msgNonNegative
	}
	return n, ""
}

func parseDays(v any) (Days, string) {
	if b, ok := v.(bool); ok {
		if b {
			return Days{}, msgNumberOrFalse
		}
		return Days{}, ""
	}
	n, ok := toNumber(v)
	if !ok {
		return Days{}, msgNumberOrFalse
	}
	if n < 0 {
		return Days{}, msgNonNegative
	}
	return After(n), ""
}

func parseStringOrFalse(v any) (Comment, string) {
	switch x := v.(type) {
	case bool:
		if !x {
			return Comment{}, ""
		}
	case string:
		if x != "" {
			return CommentText(x), ""
		}
	}
	return Comment{}, msgStringOrFalse
}

// parseLabels accepts a list, a single value or null. Scalar entries such as
// numbers are label names too; nested lists, objects and nulls are not.
func parseLabels(v any) ([]string, string) {
	switch x := v.(type) {
	case nil:
		return []string{}, ""
	case []string:
		return append([]string{}, x...), ""
	case []any:
		labels := make([]string, 0, len(x))
		for _, item := range x {
			name, ok := labelName(item)
			if !ok {
				return nil, msgArray
			}
			labels = append(labels, name)
		}
		return labels, ""
	}
	if name, ok := labelName(v); ok {
		return []string{name}, ""
	}
	return nil, msgArray
}

func labelName(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(x), true
	}
	return "", false
}

func parseOnly(v any) (ItemType, string) {
	if v == nil {
		return "", ""
	}
	s, ok := v.(string)
	if !ok {
		return "", msgOnly
	}
	t, err := ParseItemType(s)
	if err != nil {
		return "", msgOnly
	}
	return t, ""
}

// toNumber normalises the numeric types produced by the YAML and TOML decoders.
func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	}
	return 0, false
}

func asMap(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = val
		}
		return m, true
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
