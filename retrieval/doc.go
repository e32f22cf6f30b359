// Package retrieval implements the read-only retrieval engine agents call:
// semantic vector search, MMR diversity re-ranking, declarative filter
// compilation and example-based recommendation.
//
// The engine works against the VectorStore interface; the in-memory
// cosine-similarity store in this package backs tests and local
// development, while production deployments plug a remote vector database
// behind the same interface.
//
// All similarity scores are cosine similarity normalized to [0,1] via
// (1+cos)/2, so results order identically across backends.
package retrieval
