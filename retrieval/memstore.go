package retrieval

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/discoverymesh/discoverymesh/core"
)

// InMemoryStore is a process-local VectorStore using exact cosine
// similarity over a linear scan. It backs tests and single-node
// deployments; collections are created implicitly on first upsert.
// Safe for concurrent use.
type InMemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	points map[string]Point
	order  []string // insertion order, for stable scroll
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{collections: make(map[string]*collection)}
}

// Upsert inserts or replaces points by id.
func (s *InMemoryStore) Upsert(_ context.Context, name string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[name]
	if !ok {
		col = &collection{points: make(map[string]Point)}
		s.collections[name] = col
	}
	for _, p := range points {
		if p.ID == "" {
			return core.NewError(core.KindValidation, "vectorstore.upsert", "point requires an id")
		}
		if _, exists := col.points[p.ID]; !exists {
			col.order = append(col.order, p.ID)
		}
		col.points[p.ID] = p
	}
	return nil
}

// Query scores every matching point against vector and returns the top
// limit, highest score first. Ties break on ascending id so ordering is
// deterministic.
func (s *InMemoryStore) Query(_ context.Context, name string, vector []float32, limit int, filter *Filter) ([]ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[name]
	if !ok {
		return nil, core.NewError(core.KindUpstreamFailure, "vectorstore.query", "unknown collection %q", name)
	}

	scored := make([]ScoredPoint, 0, len(col.points))
	for _, id := range col.order {
		p := col.points[id]
		if !filter.Matches(p.Payload) {
			continue
		}
		scored = append(scored, ScoredPoint{Point: p, Score: CosineScore(vector, p.Vector)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Scroll pages through matching points in insertion order.
func (s *InMemoryStore) Scroll(_ context.Context, name string, filter *Filter, limit int) ([]Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[name]
	if !ok {
		return nil, core.NewError(core.KindUpstreamFailure, "vectorstore.scroll", "unknown collection %q", name)
	}

	var out []Point
	for _, id := range col.order {
		p := col.points[id]
		if !filter.Matches(p.Payload) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Fetch returns the points for ids that exist; unknown ids are absent.
func (s *InMemoryStore) Fetch(_ context.Context, name string, ids []string) ([]Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[name]
	if !ok {
		return nil, core.NewError(core.KindUpstreamFailure, "vectorstore.fetch", "unknown collection %q", name)
	}

	out := make([]Point, 0, len(ids))
	for _, id := range ids {
		if p, ok := col.points[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// CosineScore is cosine similarity normalized to [0,1] via (1+cos)/2.
// Zero-length or mismatched vectors score 0.
func CosineScore(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return (1 + cos) / 2
}
