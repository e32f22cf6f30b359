// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing catalog fixtures and retrieval points.
// Not intended for production usage.
package testutil

import (
	"context"

	"github.com/discoverymesh/discoverymesh/retrieval"
)

// CatalogPoint builds a retrieval point for a product with a hand-crafted
// vector, so tests control similarity exactly.
func CatalogPoint(id, name, category string, price float64, vector []float32) retrieval.Point {
	return retrieval.Point{
		ID:     id,
		Vector: vector,
		Payload: map[string]any{
			"id":       id,
			"name":     name,
			"category": category,
			"price":    price,
		},
	}
}

// SeedCatalog upserts points into a fresh in-memory store under the given
// collection and returns the store.
func SeedCatalog(collection string, points ...retrieval.Point) *retrieval.InMemoryStore {
	store := retrieval.NewInMemoryStore()
	if err := store.Upsert(context.Background(), collection, points); err != nil {
		panic(err)
	}
	return store
}

// Vec is shorthand for a []float32 literal.
func Vec(vs ...float32) []float32 { return vs }
