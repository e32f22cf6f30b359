package interaction

import (
	"context"
	"sync"
)

// InMemoryStore is a trivial in-process Store implementation useful for
// tests, examples and single-process prototypes. It keeps all records in
// an append-only slice guarded by an RWMutex.
//
// This implementation is intentionally minimal; it does not enforce
// retention limits or eviction. For anything that must survive a process
// restart, prefer JSONLStore or an external sink.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewInMemoryStore returns an empty in-memory interaction log.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append implements Store.
func (s *InMemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Recent implements Store.
func (s *InMemoryStore) Recent(_ context.Context, userID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, limit)
	for i := len(s.records) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if userID != "" && s.records[i].UserID != userID {
			continue
		}
		out = append(out, s.records[i])
	}
	return out, nil
}

// Len reports the total number of appended records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
