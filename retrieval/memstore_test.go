package retrieval

import (
	"context"
	"testing"

	"github.com/discoverymesh/discoverymesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) *InMemoryStore {
	t.Helper()
	store := NewInMemoryStore()
	err := store.Upsert(context.Background(), "c", []Point{
		{ID: "a", Vector: []float32{1, 0}, Payload: map[string]any{"category": "x", "price": 10.0}},
		{ID: "b", Vector: []float32{0, 1}, Payload: map[string]any{"category": "y", "price": 20.0}},
		{ID: "c", Vector: []float32{1, 1}, Payload: map[string]any{"category": "x", "price": 30.0}},
	})
	require.NoError(t, err)
	return store
}

func TestInMemoryStoreQueryOrdering(t *testing.T) {
	store := seedStore(t)

	points, err := store.Query(context.Background(), "c", []float32{1, 0}, 3, nil)
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Equal(t, "a", points[0].ID)
	assert.Equal(t, "c", points[1].ID)
	assert.Equal(t, "b", points[2].ID)
	assert.InDelta(t, 1.0, points[0].Score, 1e-9)
	assert.InDelta(t, 0.5, points[2].Score, 1e-9, "orthogonal vectors score 0.5 after normalization")
}

func TestInMemoryStoreQueryFilterAndLimit(t *testing.T) {
	store := seedStore(t)
	filter, err := CompileFilter(map[string]any{"category": map[string]any{"match": "x"}})
	require.NoError(t, err)

	points, err := store.Query(context.Background(), "c", []float32{1, 0}, 1, filter)
	require.NoError(t, err)

	require.Len(t, points, 1)
	assert.Equal(t, "a", points[0].ID)
}

func TestInMemoryStoreUnknownCollection(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Query(context.Background(), "missing", []float32{1}, 1, nil)
	require.Error(t, err)
	assert.Equal(t, core.KindUpstreamFailure, core.KindOf(err))
}

func TestInMemoryStoreUpsertReplaces(t *testing.T) {
	store := seedStore(t)
	err := store.Upsert(context.Background(), "c", []Point{
		{ID: "a", Vector: []float32{0, 1}, Payload: map[string]any{"category": "z"}},
	})
	require.NoError(t, err)

	points, err := store.Fetch(context.Background(), "c", []string{"a"})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "z", points[0].Payload["category"])
}

func TestInMemoryStoreUpsertValidation(t *testing.T) {
	store := NewInMemoryStore()
	err := store.Upsert(context.Background(), "c", []Point{{Vector: []float32{1}}})
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}

func TestInMemoryStoreScrollStableOrder(t *testing.T) {
	store := seedStore(t)

	points, err := store.Scroll(context.Background(), "c", nil, 0)
	require.NoError(t, err)

	ids := []string{points[0].ID, points[1].ID, points[2].ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids, "scroll preserves insertion order")

	limited, err := store.Scroll(context.Background(), "c", nil, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestInMemoryStoreFetchSkipsUnknown(t *testing.T) {
	store := seedStore(t)

	points, err := store.Fetch(context.Background(), "c", []string{"a", "ghost"})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "a", points[0].ID)
}

func TestCosineScoreEdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, CosineScore(nil, nil))
	assert.Equal(t, 0.0, CosineScore([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, CosineScore([]float32{0, 0}, []float32{1, 0}))
	assert.InDelta(t, 1.0, CosineScore([]float32{2, 0}, []float32{5, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineScore([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}
