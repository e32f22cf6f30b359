package retrieval

import "context"

// Point is one stored vector with its payload.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ScoredPoint is a point annotated with a normalized similarity score.
type ScoredPoint struct {
	Point
	Score float64 `json:"score"`
}

// VectorStore is the collection-scoped transport the engine runs on.
// Implementations must be safe for concurrent readers; the engine never
// writes outside Upsert.
type VectorStore interface {
	// Query returns up to limit points most similar to vector, highest
	// score first, restricted to points matching filter (nil = no filter).
	Query(ctx context.Context, collection string, vector []float32, limit int, filter *Filter) ([]ScoredPoint, error)

	// Scroll pages through points matching filter in stable order.
	Scroll(ctx context.Context, collection string, filter *Filter, limit int) ([]Point, error)

	// Upsert inserts or replaces points by id.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Fetch returns the points for the given ids; unknown ids are simply
	// absent from the result.
	Fetch(ctx context.Context, collection string, ids []string) ([]Point, error)
}
