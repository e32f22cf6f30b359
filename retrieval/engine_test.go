package retrieval_test

import (
	"context"
	"testing"

	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/internal/testutil"
	"github.com/discoverymesh/discoverymesh/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalog = "products"

// electronicsCatalog seeds two tight clusters: electronics near the
// x-axis, kitchen near the y-axis, so diversity effects are predictable.
func electronicsCatalog() *retrieval.InMemoryStore {
	return testutil.SeedCatalog(catalog,
		testutil.CatalogPoint("e1", "4K TV", "Electronics", 450, testutil.Vec(1, 0, 0)),
		testutil.CatalogPoint("e2", "Soundbar", "Electronics", 200, testutil.Vec(0.98, 0.05, 0)),
		testutil.CatalogPoint("e3", "Game Console", "Electronics", 550, testutil.Vec(0.95, 0.1, 0)),
		testutil.CatalogPoint("k1", "Stand Mixer", "Kitchen", 320, testutil.Vec(0.1, 1, 0)),
		testutil.CatalogPoint("k2", "Espresso Machine", "Kitchen", 480, testutil.Vec(0.05, 0.98, 0)),
		testutil.CatalogPoint("o1", "Desk Lamp", "Office", 40, testutil.Vec(0, 0.1, 1)),
	)
}

func TestSemanticSearchRanksBySimilarity(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())

	results, err := engine.SemanticSearch(context.Background(), retrieval.SearchQuery{
		Collection: catalog,
		Vector:     testutil.Vec(1, 0, 0),
		Limit:      3,
	})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "e1", results[0].ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSemanticSearchScoreThreshold(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())

	results, err := engine.SemanticSearch(context.Background(), retrieval.SearchQuery{
		Collection:     catalog,
		Vector:         testutil.Vec(1, 0, 0),
		Limit:          6,
		ScoreThreshold: 0.9,
	})
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Less(t, len(results), 6, "threshold excludes results even below limit")
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.9)
	}
}

func TestSemanticSearchFilterAndSemantics(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())

	results, err := engine.SemanticSearch(context.Background(), retrieval.SearchQuery{
		Collection: catalog,
		Vector:     testutil.Vec(1, 0, 0),
		Limit:      10,
		Filters: map[string]any{
			"category": map[string]any{"match": "Electronics"},
			"price":    map[string]any{"lte": 500},
		},
	})
	require.NoError(t, err)

	ids := make([]string, 0, len(results))
	for _, r := range results {
		assert.Equal(t, "Electronics", r.Payload["category"])
		assert.LessOrEqual(t, r.Payload["price"].(float64), 500.0)
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"e1", "e2"}, ids)
}

func TestSemanticSearchEmptyResultIsValid(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())

	results, err := engine.SemanticSearch(context.Background(), retrieval.SearchQuery{
		Collection: catalog,
		Vector:     testutil.Vec(1, 0, 0),
		Limit:      10,
		Filters:    map[string]any{"category": map[string]any{"match": "Garden"}},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSemanticSearchValidation(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())

	_, err := engine.SemanticSearch(context.Background(), retrieval.SearchQuery{
		Collection: catalog, Vector: testutil.Vec(1, 0, 0), Limit: 0,
	})
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	_, err = engine.SemanticSearch(context.Background(), retrieval.SearchQuery{
		Collection: catalog, Limit: 3,
	})
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}

func TestMMRDegeneratesAtZeroDiversity(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())
	query := retrieval.SearchQuery{
		Collection: catalog,
		Vector:     testutil.Vec(1, 0, 0),
		Limit:      4,
	}

	semantic, err := engine.SemanticSearch(context.Background(), query)
	require.NoError(t, err)
	mmr, err := engine.MMRSearch(context.Background(), query, 0)
	require.NoError(t, err)

	require.Len(t, mmr, len(semantic))
	for i := range semantic {
		assert.Equal(t, semantic[i].ID, mmr[i].ID,
			"diversity=0 must reproduce the relevance ranking")
	}
}

func TestMMRMonotonicDiversity(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())
	query := retrieval.SearchQuery{
		Collection: catalog,
		Vector:     testutil.Vec(1, 0.3, 0),
		Limit:      3,
	}

	categories := func(results []retrieval.Result) map[string]bool {
		set := map[string]bool{}
		for _, r := range results {
			set[r.Payload["category"].(string)] = true
		}
		return set
	}

	low, err := engine.MMRSearch(context.Background(), query, 0.2)
	require.NoError(t, err)
	high, err := engine.MMRSearch(context.Background(), query, 0.8)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(categories(high)), len(categories(low)),
		"raising diversity must never shrink category coverage")
}

func TestMMRDiversityValidation(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())

	_, err := engine.MMRSearch(context.Background(), retrieval.SearchQuery{
		Collection: catalog, Vector: testutil.Vec(1, 0, 0), Limit: 3,
	}, 1.5)
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}

func TestRecommendMoreLikeThese(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())

	resp, err := engine.Recommend(context.Background(), retrieval.RecommendQuery{
		Collection:  catalog,
		PositiveIDs: []string{"e1", "e2"},
		Limit:       2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Empty(t, resp.Warnings)

	// Examples themselves are excluded; the nearest non-example
	// electronics item leads.
	for _, r := range resp.Results {
		assert.NotContains(t, []string{"e1", "e2"}, r.ID)
	}
	assert.Equal(t, "e3", resp.Results[0].ID)
}

func TestRecommendNegativePushesAway(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())

	resp, err := engine.Recommend(context.Background(), retrieval.RecommendQuery{
		Collection:  catalog,
		PositiveIDs: []string{"e1"},
		NegativeIDs: []string{"k1"},
		Limit:       4,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	// Kitchen items rank below electronics once pushed away from k1.
	positions := map[string]int{}
	for i, r := range resp.Results {
		positions[r.ID] = i
	}
	ePos, hasE := positions["e3"]
	kPos, hasK := positions["k2"]
	require.True(t, hasE)
	if hasK {
		assert.Less(t, ePos, kPos)
	}
}

func TestRecommendUnknownIDIsPerIDWarning(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())

	resp, err := engine.Recommend(context.Background(), retrieval.RecommendQuery{
		Collection:  catalog,
		PositiveIDs: []string{"e1", "ghost"},
		Limit:       2,
	})
	require.NoError(t, err, "one valid positive id keeps the call alive")
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, core.KindValidation, core.KindOf(resp.Warnings[0]))
	assert.NotEmpty(t, resp.Results)
}

func TestRecommendAllPositivesUnknownFails(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())

	_, err := engine.Recommend(context.Background(), retrieval.RecommendQuery{
		Collection:  catalog,
		PositiveIDs: []string{"ghost-1", "ghost-2"},
		Limit:       2,
	})
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}

func TestRecommendRequiresPositives(t *testing.T) {
	engine := retrieval.NewEngine(electronicsCatalog())

	_, err := engine.Recommend(context.Background(), retrieval.RecommendQuery{
		Collection: catalog,
		Limit:      2,
	})
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}
