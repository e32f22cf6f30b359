package session

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressWithinBudgetKeepsAllTurns(t *testing.T) {
	history := []Turn{
		{UserText: "show me laptops"},
		{UserText: "under 1000", Summary: "3 laptops found"},
	}

	ctx := Compress(history, DefaultContextBudget)

	assert.Len(t, ctx.Turns, 2)
	assert.Zero(t, ctx.Dropped)
	assert.Empty(t, ctx.Summary)
	assert.LessOrEqual(t, ctx.Size(), DefaultContextBudget)
}

func TestCompressEvictsOldestFirst(t *testing.T) {
	var history []Turn
	for i := 0; i < 20; i++ {
		history = append(history, Turn{
			UserText: fmt.Sprintf("turn-%02d %s", i, strings.Repeat("x", 60)),
		})
	}

	ctx := Compress(history, 600)

	require.LessOrEqual(t, ctx.Size(), 600)
	require.NotEmpty(t, ctx.Turns, "newest turns survive")
	assert.Greater(t, ctx.Dropped, 0)

	// Whatever survives must be the tail of the history.
	last := ctx.Turns[len(ctx.Turns)-1]
	assert.Contains(t, last.UserText, "turn-19")
	// The oldest turn was folded into the summary, not kept verbatim.
	assert.Contains(t, ctx.Summary, "turn-00")
}

func TestCompressPathologicalSummaryStillBounded(t *testing.T) {
	history := []Turn{{UserText: strings.Repeat("a", 10_000)}}

	ctx := Compress(history, 200)

	assert.LessOrEqual(t, ctx.Size(), 200)
	assert.Empty(t, ctx.Turns)
}

func TestCompressZeroBudgetUsesDefault(t *testing.T) {
	ctx := Compress([]Turn{{UserText: "hi"}}, 0)
	assert.Len(t, ctx.Turns, 1)
	assert.LessOrEqual(t, ctx.Size(), DefaultContextBudget)
}

func TestCompressedContextPayload(t *testing.T) {
	ctx := CompressedContext{
		Summary: "earlier: tvs",
		Turns:   []Turn{{UserText: "show laptops", Summary: "3 found"}},
		Dropped: 2,
	}

	p := ctx.Payload()
	assert.Equal(t, "earlier: tvs", p["summary"])
	assert.Equal(t, 2, p["dropped"])
	turns := p["turns"].([]any)
	require.Len(t, turns, 1)
	assert.Equal(t, "show laptops", turns[0].(map[string]any)["user_text"])
}

func TestHistoryStoreRetention(t *testing.T) {
	store := NewHistoryStore(3)
	for i := 0; i < 5; i++ {
		store.Append("u1", fmt.Sprintf("turn-%d", i), "")
	}

	turns := store.Turns("u1")
	require.Len(t, turns, 3)
	assert.Equal(t, "turn-2", turns[0].UserText)
	assert.Equal(t, "turn-4", turns[2].UserText)

	store.Clear("u1")
	assert.Empty(t, store.Turns("u1"))
}

func TestHistoryStoreIsolatesUsers(t *testing.T) {
	store := NewHistoryStore(0)
	store.Append("u1", "a", "")
	store.Append("u2", "b", "")

	assert.Len(t, store.Turns("u1"), 1)
	assert.Len(t, store.Turns("u2"), 1)

	// Mutating the returned slice must not affect the store.
	turns := store.Turns("u1")
	turns[0].UserText = "mutated"
	assert.Equal(t, "a", store.Turns("u1")[0].UserText)
}
