package policy

import (
	"slices"
	"strings"
)

// exemptLabelsPlaceholder in markComment expands to the exempt label list.
const exemptLabelsPlaceholder = "%EXEMPT_LABELS%"

// HasStaleLabel reports whether labels contain the stale label.
func (s Settings) HasStaleLabel(labels []string) bool {
	return s.StaleLabel != "" && slices.Contains(labels, s.StaleLabel)
}

// HasExemptLabel reports whether any of labels is exempt.
func (s Settings) HasExemptLabel(labels []string) bool {
	for _, l := range labels {
		if slices.Contains(s.ExemptLabels, l) {
			return true
		}
	}
	return false
}

// MarkCommentBody returns the mark comment with %EXEMPT_LABELS% expanded to
// the backquoted exempt labels.
func (s Settings) MarkCommentBody() string {
	if !strings.Contains(s.MarkComment.Text, exemptLabelsPlaceholder) {
		return s.MarkComment.Text
	}
	quoted := make([]string, len(s.ExemptLabels))
	for i, l := range s.ExemptLabels {
		quoted[i] = "`" + l + "`"
	}
	return strings.ReplaceAll(s.MarkComment.Text, exemptLabelsPlaceholder, strings.Join(quoted, ", "))
}
