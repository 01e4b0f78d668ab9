package fossil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNormalize_FillsDefaults(t *testing.T) {
	created := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC).UnixMilli()
	in := []Record{
		{ID: " a ", Invariant: "  keep it simple ", CreatedAt: created, ReuseCount: -2},
		{ID: "b", Quality: 9, SupersededBy: strPtr("  "), ReentryOf: strPtr("a")},
		{ID: "c", Quality: -1, DayKey: "2026-01-01"},
	}

	out := Normalize(in)
	require.Len(t, out, 3)

	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "keep it simple", out[0].Invariant)
	assert.Equal(t, 3, out[0].Quality)
	assert.Equal(t, 0, out[0].ReuseCount)
	assert.Equal(t, "2026-03-04", out[0].DayKey)

	assert.Equal(t, 5, out[1].Quality)
	assert.Nil(t, out[1].SupersededBy)
	require.NotNil(t, out[1].ReentryOf)
	assert.Equal(t, "a", *out[1].ReentryOf)

	assert.Equal(t, 1, out[2].Quality)
	assert.Equal(t, "2026-01-01", out[2].DayKey)

	// input untouched
	assert.Equal(t, " a ", in[0].ID)
	assert.Equal(t, 9, in[1].Quality)
}

func TestVisible(t *testing.T) {
	assert.True(t, (&Record{ID: "a"}).Visible())
	assert.False(t, (&Record{ID: "a", Deleted: true}).Visible())
	assert.False(t, (&Record{ID: "a", SupersededBy: strPtr("b")}).Visible())
}

func TestText(t *testing.T) {
	assert.Equal(t, "why here", (&Record{ProbeIntent: "why", Invariant: "here"}).Text())
	assert.Equal(t, "here", (&Record{Invariant: "here"}).Text())
	assert.Equal(t, "why", (&Record{ProbeIntent: "why"}).Text())
}

func TestChildren_DropsDanglingAndInvisible(t *testing.T) {
	records := []Record{
		{ID: "root"},
		{ID: "child", ReentryOf: strPtr("root")},
		{ID: "ghost-child", ReentryOf: strPtr("missing")},
		{ID: "dead", Deleted: true, ReentryOf: strPtr("root")},
		{ID: "self", ReentryOf: strPtr("self")},
	}
	children := Children(records)
	assert.Equal(t, []string{"child"}, children["root"])
	assert.Empty(t, children["missing"])
	assert.Empty(t, children["self"])
}

func TestChainMembers_RootAndDescendants(t *testing.T) {
	records := []Record{
		{ID: "root"},
		{ID: "a", ReentryOf: strPtr("root")},
		{ID: "b", ReentryOf: strPtr("a")},
		{ID: "c", ReentryOf: strPtr("root")},
		{ID: "other"},
	}
	members := ChainMembers(records, "b")
	assert.Equal(t, map[string]bool{"root": true, "a": true, "b": true, "c": true}, members)
}

func TestChainMembers_CycleTerminates(t *testing.T) {
	records := []Record{
		{ID: "a", ReentryOf: strPtr("b")},
		{ID: "b", ReentryOf: strPtr("c")},
		{ID: "c", ReentryOf: strPtr("a")},
	}
	members := ChainMembers(records, "a")
	assert.Len(t, members, 3)
}

func TestChainRoot_StopsAtInvisibleParent(t *testing.T) {
	records := []Record{
		{ID: "gone", Deleted: true},
		{ID: "a", ReentryOf: strPtr("gone")},
		{ID: "b", ReentryOf: strPtr("a")},
	}
	assert.Equal(t, "a", ChainRoot(ByID(records), "b"))
}
