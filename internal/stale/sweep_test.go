package stale

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/tracker"
)

func TestSweeper_RunsPullsThenIssues(t *testing.T) {
	mt, _ := setup(nil)
	mt.SetFile("o", "r", policy.DefaultPath, []byte("staleLabel: stale\n"))
	mt.AddItem("o", "r", tracker.Item{Number: 1, UpdatedAt: daysAgo(100), PullRequest: true})
	mt.AddItem("o", "r", tracker.Item{Number: 2, UpdatedAt: daysAgo(100)})

	s := &Sweeper{
		Configs: &policy.Loader{Fetcher: mt, Resolver: policy.NewResolver(true, nil)},
		Remote:  mt,
		Options: []Option{WithClock(func() time.Time { return now })},
	}
	results, err := s.Sweep(context.Background(), "o", "r")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, policy.Pulls, results[0].Type)
	assert.Equal(t, policy.Issues, results[1].Type)
	assert.Equal(t, 1, results[0].Marked)
	assert.Equal(t, 1, results[1].Marked)

	searches := mt.CallsFor("search")
	require.NotEmpty(t, searches)
	assert.True(t, strings.HasSuffix(searches[0].Arg, "is:pr"))
}

func TestSweeper_NoConfigDoesNothing(t *testing.T) {
	mt, _ := setup(nil)
	mt.AddItem("o", "r", tracker.Item{Number: 1, UpdatedAt: daysAgo(100)})

	s := &Sweeper{
		Configs: &policy.Loader{Fetcher: mt, Resolver: policy.NewResolver(true, nil)},
		Remote:  mt,
	}
	results, err := s.Sweep(context.Background(), "o", "r")
	require.NoError(t, err)
	for _, r := range results {
		assert.False(t, r.Ran)
	}
	assert.Empty(t, mt.CallsFor("add-labels"))
}

func TestSweeper_TypeFailureDoesNotSkipOther(t *testing.T) {
	mt, cfg := setup(nil)
	mt.AddItem("o", "r", tracker.Item{Number: 2, UpdatedAt: daysAgo(100)})
	searches := 0
	mt.FailOn("search", func(int) error {
		searches++
		if searches <= 2 {
			return errors.New("pulls search failed")
		}
		return nil
	})

	s := &Sweeper{
		Configs: ConfigFunc(func(context.Context, string, string) *policy.Config { return cfg }),
		Remote:  mt,
		Options: []Option{WithClock(func() time.Time { return now })},
	}
	results, err := s.Sweep(context.Background(), "o", "r")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "o/r pulls")
	assert.Equal(t, 2, results[0].Errors)
	assert.Equal(t, 1, results[1].Marked)
}

func TestSweeper_Types(t *testing.T) {
	mt, cfg := setup(nil)
	mt.AddItem("o", "r", tracker.Item{Number: 1, UpdatedAt: daysAgo(100), PullRequest: true})
	mt.AddItem("o", "r", tracker.Item{Number: 2, UpdatedAt: daysAgo(100)})

	s := &Sweeper{
		Configs: ConfigFunc(func(context.Context, string, string) *policy.Config { return cfg }),
		Remote:  mt,
		Options: []Option{WithClock(func() time.Time { return now })},
		Types:   []policy.ItemType{policy.Issues},
	}
	results, err := s.Sweep(context.Background(), "o", "r")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, policy.Issues, results[0].Type)

	pr, _ := mt.Item("o", "r", 1)
	assert.False(t, pr.HasLabel("stale"))
	issue, _ := mt.Item("o", "r", 2)
	assert.True(t, issue.HasLabel("stale"))
}
