package interaction

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(id, userID string) Record {
	return Record{
		ID:         id,
		UserID:     userID,
		Text:       "find a laptop",
		Success:    true,
		Products:   3,
		AgentsUsed: []string{"search-agent"},
		DurationMS: 42,
		At:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestInMemoryStoreRecentNewestFirst(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, sampleRecord("r1", "alice")))
	require.NoError(t, store.Append(ctx, sampleRecord("r2", "bob")))
	require.NoError(t, store.Append(ctx, sampleRecord("r3", "alice")))

	all, err := store.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r3", all[0].ID)

	alice, err := store.Recent(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, []string{"r3", "r1"}, []string{alice[0].ID, alice[1].ID})

	limited, err := store.Recent(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "r3", limited[0].ID)
	assert.Equal(t, 3, store.Len())
}

func TestJSONLStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, sampleRecord("r1", "alice")))
	require.NoError(t, store.Append(ctx, sampleRecord("r2", "alice")))

	recent, err := store.Recent(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r2", recent[0].ID)
	assert.Equal(t, "find a laptop", recent[0].Text)
	assert.Equal(t, []string{"search-agent"}, recent[0].AgentsUsed)
}

func TestJSONLStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.jsonl")
	ctx := context.Background()

	first, err := NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Append(ctx, sampleRecord("r1", "alice")))
	require.NoError(t, first.Close())

	second, err := NewJSONLStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	require.NoError(t, second.Append(ctx, sampleRecord("r2", "alice")))

	recent, err := second.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r2", recent[0].ID)
}
