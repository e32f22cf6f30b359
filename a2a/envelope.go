package a2a

import (
	"time"

	"github.com/discoverymesh/discoverymesh/core"
)

// NewRequest builds a REQUEST envelope with a fresh id and correlation id.
// A non-zero timeout sets the deadline relative to now; zero means the
// request never times out.
func NewRequest(topic, sender string, payload map[string]any, priority core.Priority, timeout time.Duration) core.Message {
	now := time.Now().UTC()
	m := core.Message{
		ID:            core.NewID(),
		Type:          core.MessageTypeRequest,
		Topic:         topic,
		CorrelationID: core.NewID(),
		Sender:        sender,
		Payload:       payload,
		Priority:      priority,
		CreatedAt:     now,
	}
	if timeout > 0 {
		m.Deadline = now.Add(timeout)
	}
	return m
}

// NewResponse builds the RESPONSE answering req. It copies the request's
// correlation id and topic and addresses the original sender.
func NewResponse(req core.Message, sender string, payload map[string]any) core.Message {
	return core.Message{
		ID:            core.NewID(),
		Type:          core.MessageTypeResponse,
		Topic:         req.Topic,
		CorrelationID: req.CorrelationID,
		Sender:        sender,
		Recipient:     req.Sender,
		Payload:       payload,
		Priority:      req.Priority,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewEvent builds a fire-and-forget EVENT on a topic. Events carry no
// recipient and their correlation id is never consumed for matching.
func NewEvent(topic, sender string, payload map[string]any) core.Message {
	return core.Message{
		ID:        core.NewID(),
		Type:      core.MessageTypeEvent,
		Topic:     topic,
		Sender:    sender,
		Payload:   payload,
		Priority:  core.PriorityNormal,
		CreatedAt: time.Now().UTC(),
	}
}

// NewBroadcast builds a BROADCAST delivered to every subscriber of a topic.
func NewBroadcast(topic, sender string, payload map[string]any, priority core.Priority) core.Message {
	return core.Message{
		ID:        core.NewID(),
		Type:      core.MessageTypeBroadcast,
		Topic:     topic,
		Sender:    sender,
		Payload:   payload,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
}
