// Package embedding defines the text-embedding interface consumed by
// search agents and a deterministic in-process implementation for tests
// and local development.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/discoverymesh/discoverymesh/core"
)

// Embedder turns text into a fixed-length vector. Implementations must be
// safe for concurrent use.
type Embedder interface {
	// Embed returns the vector for text. The dimension is fixed per
	// embedder instance.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension reports the vector length Embed produces.
	Dimension() int
}

// HashEmbedder is a deterministic bag-of-words embedder hashing tokens
// into buckets. It has no semantic quality and exists so the retrieval
// stack can run without a remote embedding service.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates an embedder producing dim-length vectors.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &HashEmbedder{dim: dim}
}

// Dimension implements Embedder.
func (h *HashEmbedder) Dimension() int { return h.dim }

// Embed hashes whitespace-separated tokens into buckets and L2-normalizes
// the result. Empty text is a validation error.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return nil, core.NewError(core.KindValidation, "embedding.embed", "text is empty")
	}

	vec := make([]float32, h.dim)
	for _, tok := range tokens {
		hash := fnv.New32a()
		hash.Write([]byte(tok))
		vec[int(hash.Sum32())%h.dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}
