package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/stale"
)

// RenderRunResult renders one line summarising a mark-and-sweep run.
func RenderRunResult(repo string, r *stale.RunResult) string {
	var icon string
	switch {
	case !r.Ran:
		icon = RenderSkipIcon()
	case r.Errors > 0:
		icon = RenderFailIcon()
	case r.Skipped > 0:
		icon = RenderWarnIcon()
	default:
		icon = RenderPassIcon()
	}

	head := fmt.Sprintf("%s %s %s", icon, RenderAccent(repo), r.Type)
	if !r.Ran {
		return head + " " + RenderMuted("disabled")
	}

	counts := fmt.Sprintf("marked %d  closed %d  locked %d", r.Marked, r.Closed, r.Locked)
	var extra []string
	if r.Skipped > 0 {
		extra = append(extra, RenderWarn(fmt.Sprintf("%d left for next run", r.Skipped)))
	}
	if r.Errors > 0 {
		extra = append(extra, RenderFail(fmt.Sprintf("%d failed", r.Errors)))
	}
	if r.DryRun {
		extra = append(extra, RenderMuted("dry-run"))
	}
	line := head + "  " + counts
	if len(extra) > 0 {
		line += "  " + strings.Join(extra, "  ")
	}
	return line
}

// RenderValidation renders the result of checking a policy document.
func RenderValidation(path string, err error) string {
	if err == nil {
		return fmt.Sprintf("%s %s is valid", RenderPassIcon(), path)
	}
	var verr *policy.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Sprintf("%s %s: %v", RenderFailIcon(), path, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s has %d invalid field(s)\n", RenderFailIcon(), path, len(verr.Errors))
	b.WriteString(RenderSeparator())
	for _, fe := range verr.Errors {
		fmt.Fprintf(&b, "\n  %s %s", RenderFail(fe.Path), fe.Message)
	}
	b.WriteString("\n" + RenderMuted("Invalid fields fall back to their defaults."))
	return b.String()
}
