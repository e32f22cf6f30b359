package interaction

import (
	"context"
	"time"
)

// Record is one logged orchestration interaction.
type Record struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Text       string    `json:"text"`
	WorkflowID string    `json:"workflow_id,omitempty"`
	Success    bool      `json:"success"`
	IsPartial  bool      `json:"is_partial"`
	Products   int       `json:"products"`
	AgentsUsed []string  `json:"agents_used,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

// Store is the append-only interaction log. Records are never updated or
// deleted through this interface.
type Store interface {
	// Append adds one record to the log.
	Append(ctx context.Context, rec Record) error

	// Recent returns up to limit records, newest first, optionally
	// restricted to one user (empty userID means all users).
	Recent(ctx context.Context, userID string, limit int) ([]Record, error)
}
