package core

import (
	"time"

	"github.com/google/uuid"
)

// MessageType categorizes a message envelope. REQUEST and RESPONSE form
// correlated pairs; EVENT and BROADCAST are fire-and-forget.
type MessageType int

const (
	// MessageTypeRequest expects exactly one correlated RESPONSE.
	MessageTypeRequest MessageType = iota
	// MessageTypeResponse answers a prior REQUEST via its correlation id.
	MessageTypeResponse
	// MessageTypeEvent is a fire-and-forget notification on a topic.
	MessageTypeEvent
	// MessageTypeBroadcast is delivered to every subscriber of a topic.
	MessageTypeBroadcast
)

// String returns the wire name of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	case MessageTypeEvent:
		return "EVENT"
	case MessageTypeBroadcast:
		return "BROADCAST"
	default:
		return "UNKNOWN"
	}
}

// Priority orders delivery when multiple messages are queued for the same
// consumer. Higher values are serviced first; equal priorities are FIFO.
type Priority int

const (
	// PriorityLow is background work.
	PriorityLow Priority = iota
	// PriorityNormal is the default for workflow step dispatch.
	PriorityNormal
	// PriorityHigh jumps ahead of normal traffic.
	PriorityHigh
	// PriorityCritical preempts everything else in the queue.
	PriorityCritical
)

// String returns the wire name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityNormal:
		return "NORMAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Message is the envelope exchanged between agents over the bus.
//
// Invariants:
//   - A RESPONSE carries the CorrelationID of exactly one prior REQUEST.
//   - EVENT and BROADCAST correlation ids are never consumed for matching.
//   - Deadline is only meaningful for REQUEST messages; a zero Deadline
//     means the request never times out.
//
// Messages are created per dispatch and discarded once matched or
// delivered; they are not persisted.
type Message struct {
	ID            string         `json:"id"`
	Type          MessageType    `json:"type"`
	Topic         string         `json:"topic"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Sender        string         `json:"sender"`
	Recipient     string         `json:"recipient,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	Priority      Priority       `json:"priority"`
	CreatedAt     time.Time      `json:"created_at"`
	Deadline      time.Time      `json:"deadline,omitempty"`
}

// Expired reports whether the message carried a deadline that has passed.
func (m Message) Expired(now time.Time) bool {
	return !m.Deadline.IsZero() && now.After(m.Deadline)
}

// NewID generates a unique identifier for messages, correlation ids and
// workflow executions.
func NewID() string { return uuid.NewString() }
