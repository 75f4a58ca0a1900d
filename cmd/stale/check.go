package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/ui"
)

// errInvalid signals a failed check after the report has been printed.
var errInvalid = errors.New("policy file is invalid")

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a policy file",
	Long: `Parses a policy file (.github/stale.yml, or TOML when the name ends in .toml)
and reports every invalid option. Invalid options fall back to their defaults
when the bot runs; check exits non-zero so CI can catch them early.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		doc, err := readPolicyFile(path)
		if err == nil {
			_, err = policy.NewResolver(true, nil).Validate(doc, "", "")
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderValidation(path, err))
		if err != nil {
			return errInvalid
		}
		return nil
	},
}
