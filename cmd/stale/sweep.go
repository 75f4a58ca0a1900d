package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/stale/internal/config"
	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/stale"
	"github.com/steveyegge/stale/internal/telemetry"
	"github.com/steveyegge/stale/internal/tracker"
	"github.com/steveyegge/stale/internal/tracker/memory"
	"github.com/steveyegge/stale/internal/ui"
)

var (
	sweepType   string
	sweepDryRun bool
	sweepAsOf   string
	sweepDemo   bool
	sweepPolicy string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [owner/repo]",
	Short: "Run one mark-and-sweep pass against a repository",
	Long: `Marks inactive items, closes items that stayed stale, and locks old closed
items, once, then exits. Use --dry-run to see what would happen and --as-of to
evaluate the policy at a different moment ("in 3 weeks", 2024-07-01).

With --demo the sweep runs against a built-in in-memory repository.`,
	Example: `  stale sweep octo/hello --dry-run
  stale sweep octo/hello --type issues --as-of "in 2 weeks" --dry-run
  stale sweep --demo --as-of "in 10 days"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if sweepDemo {
			return cobra.MaximumNArgs(0)(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepType, "type", "all", "Item type to sweep (issues, pulls, all)")
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "Log actions without performing them")
	sweepCmd.Flags().StringVar(&sweepAsOf, "as-of", "", "Evaluate the policy as of this time")
	sweepCmd.Flags().BoolVar(&sweepDemo, "demo", false, "Sweep a built-in in-memory repository")
	sweepCmd.Flags().StringVar(&sweepPolicy, "policy", "", "Use this local policy file instead of the repository's; its _extends is read from the remote")
}

func parseTypes(s string) ([]policy.ItemType, error) {
	if s == "" || s == "all" {
		return nil, nil
	}
	t, err := policy.ParseItemType(s)
	if err != nil {
		return nil, err
	}
	return []policy.ItemType{t}, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	types, err := parseTypes(sweepType)
	if err != nil {
		return err
	}
	asOf, err := parseAsOf(sweepAsOf, time.Now())
	if err != nil {
		return err
	}
	dryRun := sweepDryRun || config.GetBool(config.KeyDryRun)

	var (
		remote  tracker.Remote
		fetcher tracker.ContentFetcher
		repo    tracker.Repository
		demo    *memory.Tracker
	)
	if sweepDemo {
		demo = newDemoTracker(asOf)
		remote, fetcher = demo, demo
		repo = tracker.Repository{Owner: demoOwner, Name: demoRepo}
	} else {
		if repo, err = tracker.ParseRepository(args[0]); err != nil {
			return err
		}
		client, err := newGitHubClient()
		if err != nil {
			return err
		}
		remote, fetcher = client, client
	}

	loader := newLoader(fetcher)
	var configs stale.ConfigSource = loader
	if sweepPolicy != "" {
		doc, err := readPolicyFile(sweepPolicy)
		if err != nil {
			return err
		}
		doc = loader.Extend(ctx, repo.Owner, repo.Name, doc)
		cfg := loader.Resolver.Resolve(doc, repo.Owner, repo.Name)
		configs = stale.ConfigFunc(func(context.Context, string, string) *policy.Config { return cfg })
	}

	sweeper := &stale.Sweeper{
		Configs: configs,
		Remote:  telemetry.WrapRemote(remote),
		Logger:  logger,
		Options: engineOptions(dryRun, func() time.Time { return asOf }),
		Types:   types,
	}
	results, sweepErr := sweeper.Sweep(ctx, repo.Owner, repo.Name)

	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintln(out, ui.RenderRunResult(repo.FullName(), r))
	}
	if demo != nil {
		printDemoState(cmd, demo)
	}
	return sweepErr
}

func printDemoState(cmd *cobra.Command, mt *memory.Tracker) {
	out := cmd.OutOrStdout()
	titleWidth := ui.Width(os.Stdout) - 30
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.RenderCategory("items"))

	for n := 1; ; n++ {
		it, ok := mt.Item(demoOwner, demoRepo, n)
		if !ok {
			return
		}
		kind := "issue"
		if it.PullRequest {
			kind = "pr"
		}
		state := string(it.State)
		if it.Locked {
			state += ", locked"
		}
		title := it.Title
		if titleWidth > 10 && len(title) > titleWidth {
			title = title[:titleWidth-3] + "..."
		}
		line := fmt.Sprintf("  #%d %-5s %-14s %s", it.Number, kind, state, title)
		if len(it.Labels) > 0 {
			line += " " + ui.RenderMuted("["+strings.Join(it.Labels, ", ")+"]")
		}
		fmt.Fprintln(out, line)
	}
}
