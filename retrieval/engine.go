package retrieval

import (
	"context"
	"sort"

	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/samber/lo"
)

// Result is one retrieval hit: id, normalized score in [0,1] and the
// stored payload. Results are ordered by descending score (descending MMR
// score for diversity search).
type Result struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload,omitempty"`
}

// SearchQuery parameterizes SemanticSearch and MMRSearch.
type SearchQuery struct {
	Collection string
	Vector     []float32
	Limit      int
	// ScoreThreshold excludes results scoring below it when > 0, even if
	// that yields fewer than Limit results.
	ScoreThreshold float64
	// Filters is the declarative field -> constraint mapping compiled by
	// CompileFilter.
	Filters map[string]any
}

// RecommendQuery parameterizes Recommend.
type RecommendQuery struct {
	Collection  string
	PositiveIDs []string
	NegativeIDs []string
	Limit       int
	Filters     map[string]any
}

// RecommendResponse carries recommendation hits plus per-id validation
// warnings for example ids missing from the collection.
type RecommendResponse struct {
	Results  []Result
	Warnings []error
}

// Options configures an Engine.
type Options struct {
	// Logger receives engine diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// OversampleFactor sizes the MMR candidate pool as Limit*factor
	// (minimum pool MinPool). Defaults to 4.
	OversampleFactor int
	// MinPool is the smallest MMR candidate pool. Defaults to 20.
	MinPool int
}

// Engine executes retrieval operations against a VectorStore. Construct
// once and share; the engine holds no per-request state.
type Engine struct {
	store VectorStore
	opts  Options
}

// NewEngine creates an Engine over the given store.
func NewEngine(store VectorStore, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger:           logging.NoOpLogger{},
		OversampleFactor: 4,
		MinPool:          20,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{store: store, opts: opts}
}

// SemanticSearch returns the top q.Limit points by vector similarity.
// Results below q.ScoreThreshold are excluded even if fewer than Limit
// remain.
func (e *Engine) SemanticSearch(ctx context.Context, q SearchQuery) ([]Result, error) {
	if err := validateSearch(q); err != nil {
		return nil, err
	}
	filter, err := CompileFilter(q.Filters)
	if err != nil {
		return nil, err
	}

	points, err := e.store.Query(ctx, q.Collection, q.Vector, q.Limit, filter)
	if err != nil {
		return nil, err
	}
	results := lo.FilterMap(points, func(p ScoredPoint, _ int) (Result, bool) {
		if q.ScoreThreshold > 0 && p.Score < q.ScoreThreshold {
			return Result{}, false
		}
		return Result{ID: p.ID, Score: p.Score, Payload: p.Payload}, true
	})
	return results, nil
}

// MMRSearch re-ranks an oversampled candidate pool with maximal marginal
// relevance. With λ = 1 − diversity, it iteratively picks the candidate
// maximizing
//
//	λ·sim(doc, query) − (1−λ)·max_{s ∈ selected} sim(doc, s)
//
// until q.Limit picks are made or candidates are exhausted. diversity=0
// degenerates to pure relevance ranking; diversity→1 maximizes spread.
func (e *Engine) MMRSearch(ctx context.Context, q SearchQuery, diversity float64) ([]Result, error) {
	if err := validateSearch(q); err != nil {
		return nil, err
	}
	if diversity < 0 || diversity > 1 {
		return nil, core.NewError(core.KindValidation, "retrieval.mmr",
			"diversity must be in [0,1], got %v", diversity)
	}
	filter, err := CompileFilter(q.Filters)
	if err != nil {
		return nil, err
	}

	poolSize := q.Limit * e.opts.OversampleFactor
	if poolSize < e.opts.MinPool {
		poolSize = e.opts.MinPool
	}
	pool, err := e.store.Query(ctx, q.Collection, q.Vector, poolSize, filter)
	if err != nil {
		return nil, err
	}
	if q.ScoreThreshold > 0 {
		pool = lo.Filter(pool, func(p ScoredPoint, _ int) bool { return p.Score >= q.ScoreThreshold })
	}

	lambda := 1 - diversity
	var selected []ScoredPoint
	selectedIdx := make(map[int]bool, q.Limit)
	results := make([]Result, 0, q.Limit)

	for len(results) < q.Limit && len(results) < len(pool) {
		best := -1
		bestScore := 0.0
		for i, cand := range pool {
			if selectedIdx[i] {
				continue
			}
			penalty := 0.0
			for _, s := range selected {
				if sim := CosineScore(cand.Vector, s.Vector); sim > penalty {
					penalty = sim
				}
			}
			score := lambda*cand.Score - (1-lambda)*penalty
			// Strict > keeps pool order on ties, so diversity=0 returns
			// exactly the relevance ranking.
			if best == -1 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best == -1 {
			break
		}
		selectedIdx[best] = true
		selected = append(selected, pool[best])
		results = append(results, Result{ID: pool[best].ID, Score: bestScore, Payload: pool[best].Payload})
	}
	return results, nil
}

// Recommend returns points most similar to the positive examples and
// least similar to the negative examples. Example ids missing from the
// collection yield per-id validation warnings without failing the call;
// the call fails only when no valid positive id remains.
func (e *Engine) Recommend(ctx context.Context, q RecommendQuery) (*RecommendResponse, error) {
	if q.Collection == "" {
		return nil, core.NewError(core.KindValidation, "retrieval.recommend", "collection is required")
	}
	if len(q.PositiveIDs) == 0 {
		return nil, core.NewError(core.KindValidation, "retrieval.recommend", "at least one positive id is required")
	}
	if q.Limit <= 0 {
		return nil, core.NewError(core.KindValidation, "retrieval.recommend", "limit must be positive")
	}
	filter, err := CompileFilter(q.Filters)
	if err != nil {
		return nil, err
	}

	resp := &RecommendResponse{}
	positives, warnings, err := e.fetchExamples(ctx, q.Collection, q.PositiveIDs)
	if err != nil {
		return nil, err
	}
	resp.Warnings = append(resp.Warnings, warnings...)
	if len(positives) == 0 {
		return nil, core.NewError(core.KindValidation, "retrieval.recommend", "no positive id found in collection %q", q.Collection)
	}

	negatives, warnings, err := e.fetchExamples(ctx, q.Collection, q.NegativeIDs)
	if err != nil {
		return nil, err
	}
	resp.Warnings = append(resp.Warnings, warnings...)

	posCentroid := centroid(positives)
	var negCentroid []float32
	if len(negatives) > 0 {
		negCentroid = centroid(negatives)
	}

	exclude := make(map[string]bool, len(positives)+len(negatives))
	for _, p := range positives {
		exclude[p.ID] = true
	}
	for _, p := range negatives {
		exclude[p.ID] = true
	}

	// Oversample so excluded examples do not starve the result set.
	pool, err := e.store.Query(ctx, q.Collection, posCentroid, q.Limit+len(exclude), filter)
	if err != nil {
		return nil, err
	}
	for _, cand := range pool {
		if exclude[cand.ID] {
			continue
		}
		score := cand.Score
		if negCentroid != nil {
			score -= CosineScore(cand.Vector, negCentroid)
			score = clamp01((score + 1) / 2)
		}
		resp.Results = append(resp.Results, Result{ID: cand.ID, Score: score, Payload: cand.Payload})
		if len(resp.Results) >= q.Limit {
			break
		}
	}
	if negCentroid != nil {
		sortResultsByScore(resp.Results)
	}
	return resp, nil
}

// fetchExamples resolves example ids, reporting a validation warning per
// missing id.
func (e *Engine) fetchExamples(ctx context.Context, collection string, ids []string) ([]Point, []error, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	points, err := e.store.Fetch(ctx, collection, ids)
	if err != nil {
		return nil, nil, err
	}
	found := make(map[string]bool, len(points))
	for _, p := range points {
		found[p.ID] = true
	}
	var warnings []error
	for _, id := range ids {
		if !found[id] {
			warnings = append(warnings, core.NewError(core.KindValidation, "retrieval.recommend",
				"example id %q not found in collection %q", id, collection))
		}
	}
	return points, warnings, nil
}

func validateSearch(q SearchQuery) error {
	if q.Collection == "" {
		return core.NewError(core.KindValidation, "retrieval.search", "collection is required")
	}
	if len(q.Vector) == 0 {
		return core.NewError(core.KindValidation, "retrieval.search", "query vector is required")
	}
	if q.Limit <= 0 {
		return core.NewError(core.KindValidation, "retrieval.search", "limit must be positive")
	}
	return nil
}

func centroid(points []Point) []float32 {
	if len(points) == 0 {
		return nil
	}
	dim := len(points[0].Vector)
	sum := make([]float64, dim)
	for _, p := range points {
		for i, v := range p.Vector {
			if i < dim {
				sum[i] += float64(v)
			}
		}
	}
	out := make([]float32, dim)
	for i, v := range sum {
		out[i] = float32(v / float64(len(points)))
	}
	return out
}

func sortResultsByScore(results []Result) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
