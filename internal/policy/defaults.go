package policy

// Option names as they appear in the configuration document.
const (
	KeyDaysUntilStale   = "daysUntilStale"
	KeyDaysUntilClose   = "daysUntilClose"
	KeyDaysUntilLock    = "daysUntilLock"
	KeyStaleLabel       = "staleLabel"
	KeyClosedLabel      = "closedLabel"
	KeyExemptLabels     = "exemptLabels"
	KeyOnlyLabels       = "onlyLabels"
	KeyExemptProjects   = "exemptProjects"
	KeyExemptMilestones = "exemptMilestones"
	KeyExemptAssignees  = "exemptAssignees"
	KeyMarkComment      = "markComment"
	KeyUnmarkComment    = "unmarkComment"
	KeyCloseComment     = "closeComment"
	KeyLimitPerRun      = "limitPerRun"
	KeyPerform          = "perform"

	KeyOnly    = "only"
	KeyPulls   = "pulls"
	KeyIssues  = "issues"
	KeyExtends = "_extends"
)

// optionKeys are the keys accepted both at the top level and inside a
// per-type section.
var optionKeys = []string{
	KeyDaysUntilStale,
	KeyDaysUntilClose,
	KeyDaysUntilLock,
	KeyStaleLabel,
	KeyClosedLabel,
	KeyExemptLabels,
	KeyOnlyLabels,
	KeyExemptProjects,
	KeyExemptMilestones,
	KeyExemptAssignees,
	KeyMarkComment,
	KeyUnmarkComment,
	KeyCloseComment,
	KeyLimitPerRun,
	KeyPerform,
}

// MaxLimitPerRun is the upper bound for limitPerRun and the search page size.
const MaxLimitPerRun = 30

// DefaultMarkComment is posted when an item is marked stale and the document
// does not set markComment.
const DefaultMarkComment = "Is this still relevant? If so, what is blocking it? " +
	"Is there anything you can do to help move it forward?" +
	"\n\nThis issue has been automatically marked as stale " +
	"because it has not had recent activity. " +
	"It will be closed if no further activity occurs."

// Defaults returns the schema defaults. perform is supplied by the caller
// (normally the inverse of the dry-run setting).
func Defaults(perform bool) Settings {
	return Settings{
		DaysUntilStale: 60,
		DaysUntilClose: After(7),
		StaleLabel:     "wontfix",
		ExemptLabels:   []string{"pinned", "security"},
		OnlyLabels:     []string{},
		MarkComment:    CommentText(DefaultMarkComment),
		LimitPerRun:    MaxLimitPerRun,
		Perform:        perform,
	}
}

// Disabled is the configuration used when a repository has no readable
// configuration document: defaults with perform forced off.
func Disabled(owner, repo string) *Config {
	return &Config{
		Owner:    owner,
		Repo:     repo,
		Settings: Defaults(false),
	}
}
