package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihalm/duetrack/internal/due"
)

func TestMergeTimelineInterleaves(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	dues := []*due.Due{
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base.Add(2 * time.Minute)},
	}
	flags := []*due.Flag{
		{ID: 10, CreatedAt: base.Add(time.Minute)},
		{ID: 11, CreatedAt: base.Add(3 * time.Minute)},
	}

	entries := mergeTimeline(dues, flags)
	require.Len(t, entries, 4)
	assert.Equal(t, EntryDue, entries[0].Type)
	assert.Equal(t, int64(1), entries[0].Due.ID)
	assert.Equal(t, EntryFlag, entries[1].Type)
	assert.Equal(t, int64(10), entries[1].Flag.ID)
	assert.Equal(t, EntryDue, entries[2].Type)
	assert.Equal(t, EntryFlag, entries[3].Type)
}

func TestMergeTimelineDueWinsTie(t *testing.T) {
	ts := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	entries := mergeTimeline(
		[]*due.Due{{ID: 1, CreatedAt: ts}},
		[]*due.Flag{{ID: 10, CreatedAt: ts}},
	)
	require.Len(t, entries, 2)
	assert.Equal(t, EntryDue, entries[0].Type)
	assert.Equal(t, EntryFlag, entries[1].Type)
}

func TestMergeTimelineOneSideEmpty(t *testing.T) {
	ts := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	entries := mergeTimeline(nil, []*due.Flag{{ID: 10, CreatedAt: ts}, {ID: 11, CreatedAt: ts.Add(time.Minute)}})
	require.Len(t, entries, 2)
	assert.Equal(t, EntryFlag, entries[0].Type)
	assert.Equal(t, EntryFlag, entries[1].Type)

	assert.Empty(t, mergeTimeline(nil, nil))
}
