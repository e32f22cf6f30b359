package session

import (
	"sync"
	"time"
)

// HistoryStore keeps per-user conversation turns in a process-local map.
// It is safe for concurrent access and best suited for a single-node
// deployment; swap for a durable store behind the same methods when
// history must survive restarts. Returned slices are copies so callers
// cannot mutate internal state.
type HistoryStore struct {
	mu       sync.RWMutex
	maxTurns int
	turns    map[string][]Turn
}

// NewHistoryStore creates a store retaining at most maxTurns recent turns
// per user (0 means unbounded).
func NewHistoryStore(maxTurns int) *HistoryStore {
	return &HistoryStore{maxTurns: maxTurns, turns: make(map[string][]Turn)}
}

// Append records a completed turn for the user, evicting the oldest turn
// beyond the retention limit.
func (s *HistoryStore) Append(userID, userText, summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.turns[userID], Turn{
		UserText: userText,
		Summary:  summary,
		At:       time.Now().UTC(),
	})
	if s.maxTurns > 0 && len(turns) > s.maxTurns {
		turns = turns[len(turns)-s.maxTurns:]
	}
	s.turns[userID] = turns
}

// Turns returns a copy of the user's recorded turns, oldest first.
func (s *HistoryStore) Turns(userID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.turns[userID]...)
}

// Clear discards the user's history.
func (s *HistoryStore) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, userID)
}
