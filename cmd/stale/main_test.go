package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/stale"
	"github.com/steveyegge/stale/internal/tracker"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		sweepType, sweepDryRun, sweepAsOf, sweepDemo, sweepPolicy = "all", false, "", false, ""
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "stale version "+Version), out)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "stale.yml")
	require.NoError(t, os.WriteFile(valid, []byte("daysUntilStale: 30\nstaleLabel: stale\n"), 0o600))
	invalid := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("daysUntilStale = \"soon\"\n[pulls]\nlol = 1\n"), 0o600))

	out, err := execute(t, "check", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	out, err = execute(t, "check", invalid)
	require.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, "daysUntilStale")
	assert.Contains(t, out, "pulls.lol")
}

func TestSweepDemo(t *testing.T) {
	out, err := execute(t, "sweep", "--demo")
	require.NoError(t, err)
	assert.Contains(t, out, "demo/project pulls")
	assert.Contains(t, out, "demo/project issues")
	assert.Contains(t, out, "marked 1  closed 1  locked 1")
	assert.Contains(t, out, "#6 issue closed, locked")
}

func TestSweepDemo_DryRun(t *testing.T) {
	out, err := execute(t, "sweep", "--demo", "--dry-run", "--type", "issues")
	require.NoError(t, err)
	assert.Contains(t, out, "dry-run")
	assert.NotContains(t, out, "demo/project pulls")
	assert.Contains(t, out, "Crash on startup with empty config\n")
	assert.NotContains(t, out, "empty config [stale]")
}

func TestSweepPolicyFile_FollowsExtends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.yml")
	require.NoError(t, os.WriteFile(path, []byte("_extends: project\ndaysUntilClose: false\n"), 0o600))

	out, err := execute(t, "sweep", "--demo", "--type", "issues", "--policy", path)
	require.NoError(t, err)
	// daysUntilLock comes from the repository's own policy.
	assert.Contains(t, out, "marked 1  closed 0  locked 1")
}

func TestSweepRequiresRepo(t *testing.T) {
	_, err := execute(t, "sweep")
	require.Error(t, err)

	_, err = execute(t, "sweep", "not-a-repo", "--type", "issues")
	require.Error(t, err)
}

func TestParseTypes(t *testing.T) {
	types, err := parseTypes("all")
	require.NoError(t, err)
	assert.Nil(t, types)

	types, err = parseTypes("pulls")
	require.NoError(t, err)
	assert.Equal(t, []policy.ItemType{policy.Pulls}, types)

	_, err = parseTypes("discussions")
	assert.Error(t, err)
}

func TestDemoTracker_SweepsAsOfLater(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mt := newDemoTracker(now)
	later := now.AddDate(0, 0, 20)

	s := &stale.Sweeper{
		Configs: newLoader(mt),
		Remote:  mt,
		Options: []stale.Option{stale.WithClock(func() time.Time { return later })},
		Types:   []policy.ItemType{policy.Issues},
	}
	results, err := s.Sweep(t.Context(), demoOwner, demoRepo)
	require.NoError(t, err)
	require.Len(t, results, 1)

	it, _ := mt.Item(demoOwner, demoRepo, 4)
	assert.False(t, it.HasLabel("stale"))
	it, _ = mt.Item(demoOwner, demoRepo, 1)
	assert.True(t, it.HasLabel("stale"))
	assert.Equal(t, tracker.StateOpen, it.State)
}
