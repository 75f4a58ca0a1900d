package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/stale/internal/tracker"
)

func TestParse(t *testing.T) {
	q, err := Parse(`repo:o/r is:open updated:<2020-01-02T03:04:05 -label:"won't fix" label:"needs info" no:milestone is:pr`)
	require.NoError(t, err)

	assert.Equal(t, "o/r", q.Repo)
	assert.Equal(t, tracker.StateOpen, q.State)
	require.NotNil(t, q.PullRequest)
	assert.True(t, *q.PullRequest)
	assert.Equal(t, []string{"won't fix"}, q.ExcludeLabels)
	assert.Equal(t, []string{"needs info"}, q.Labels)
	assert.True(t, q.NoMilestone)
	require.NotNil(t, q.UpdatedBefore)
	assert.Equal(t, time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), *q.UpdatedBefore)
}

func TestParse_Errors(t *testing.T) {
	for _, s := range []string{
		"is:open",
		"repo:o/r is:draft",
		"repo:o/r updated:>2020-01-01",
		"repo:o/r updated:<not-a-time",
		"repo:o/r no:reviewer",
	} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestSearch_FiltersSortsAndLimits(t *testing.T) {
	ctx := context.Background()
	mt := New()
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	mt.AddItem("o", "r", tracker.Item{Number: 1, UpdatedAt: old})
	mt.AddItem("o", "r", tracker.Item{Number: 2, UpdatedAt: old.Add(time.Hour)})
	mt.AddItem("o", "r", tracker.Item{Number: 3, UpdatedAt: old, Labels: []string{"pinned"}})
	mt.AddItem("o", "r", tracker.Item{Number: 4, UpdatedAt: old, PullRequest: true})
	mt.AddItem("o", "r", tracker.Item{Number: 5, UpdatedAt: time.Now()})
	mt.AddItem("o", "other", tracker.Item{Number: 6, UpdatedAt: old})

	items, err := mt.Search(ctx, tracker.SearchRequest{
		Query:   `repo:o/r is:open updated:<2021-01-01T00:00:00 -label:"pinned" is:issue`,
		Order:   "desc",
		PerPage: 30,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Number, "most recently updated first")
	assert.Equal(t, 1, items[1].Number)

	items, err = mt.Search(ctx, tracker.SearchRequest{Query: `repo:o/r is:open is:issue`, Order: "desc", PerPage: 1})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestMutationsRecordAndTouch(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mt := New()
	mt.Now = func() time.Time { return now }
	mt.AddItem("o", "r", tracker.Item{Number: 7})

	require.NoError(t, mt.AddLabels(ctx, "o", "r", 7, "stale"))
	it, ok := mt.Item("o", "r", 7)
	require.True(t, ok)
	assert.Equal(t, []string{"stale"}, it.Labels)
	assert.Equal(t, now, it.UpdatedAt)

	require.NoError(t, mt.RemoveLabel(ctx, "o", "r", 7, "stale"))
	err := mt.RemoveLabel(ctx, "o", "r", 7, "stale")
	assert.True(t, tracker.IsNotFound(err))

	require.NoError(t, mt.SetState(ctx, "o", "r", 7, tracker.StateClosed))
	require.NoError(t, mt.Lock(ctx, "o", "r", 7))
	it, _ = mt.Item("o", "r", 7)
	assert.True(t, it.IsClosed())
	assert.True(t, it.Locked)

	assert.Len(t, mt.CallsFor("remove-label"), 2)
}

func TestLabelsAndFiles(t *testing.T) {
	ctx := context.Background()
	mt := New()

	_, err := mt.GetLabel(ctx, "o", "r", "stale")
	assert.True(t, tracker.IsNotFound(err))
	require.NoError(t, mt.CreateLabel(ctx, "o", "r", tracker.Label{Name: "stale", Color: "ffffff"}))
	l, err := mt.GetLabel(ctx, "o", "r", "stale")
	require.NoError(t, err)
	assert.Equal(t, "ffffff", l.Color)

	_, err = mt.GetContents(ctx, "o", "r", ".github/stale.yml")
	assert.True(t, tracker.IsNotFound(err))
	mt.SetFile("o", "r", ".github/stale.yml", []byte("daysUntilStale: 1"))
	data, err := mt.GetContents(ctx, "o", "r", ".github/stale.yml")
	require.NoError(t, err)
	assert.Equal(t, "daysUntilStale: 1", string(data))
}
