package a2a

import (
	"sync"
	"time"

	"github.com/discoverymesh/discoverymesh/core"
)

// Outcome resolves a pending request slot: either the matched RESPONSE or
// a typed error (timeout, cancellation). Exactly one of the two is set.
type Outcome struct {
	Response core.Message
	Err      error
}

type pendingSlot struct {
	ch    chan Outcome
	timer *time.Timer
}

// PendingTable is the correlation-keyed promise table behind
// request/response. Register creates a slot keyed by correlation id;
// Fulfill resolves it with the matching RESPONSE. A slot whose deadline
// passes first resolves with an UpstreamTimeout error instead. Each slot
// resolves at most once; late responses are dropped.
type PendingTable struct {
	mu    sync.Mutex
	slots map[string]*pendingSlot
}

// NewPendingTable creates an empty table.
func NewPendingTable() *PendingTable {
	return &PendingTable{slots: make(map[string]*pendingSlot)}
}

// Register creates a pending slot for correlationID. A non-zero deadline
// arms a timer that resolves the slot with an UpstreamTimeout error once
// it passes. The returned channel receives exactly one Outcome.
func (p *PendingTable) Register(correlationID string, deadline time.Time) <-chan Outcome {
	slot := &pendingSlot{ch: make(chan Outcome, 1)}

	p.mu.Lock()
	p.slots[correlationID] = slot
	p.mu.Unlock()

	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d < 0 {
			d = 0
		}
		slot.timer = time.AfterFunc(d, func() {
			p.resolve(correlationID, Outcome{
				Err: core.NewError(core.KindUpstreamTimeout, "a2a.request",
					"no response for correlation %s before deadline", correlationID),
			})
		})
	}
	return slot.ch
}

// Fulfill resolves the slot matching the response's correlation id.
// It reports false when no slot is waiting (already resolved, timed out,
// or never registered). Messages that are not RESPONSEs are ignored so
// EVENT/BROADCAST correlation ids are never consumed for matching.
func (p *PendingTable) Fulfill(resp core.Message) bool {
	if resp.Type != core.MessageTypeResponse || resp.CorrelationID == "" {
		return false
	}
	return p.resolve(resp.CorrelationID, Outcome{Response: resp})
}

// Cancel resolves the slot with the provided error, typically on context
// cancellation.
func (p *PendingTable) Cancel(correlationID string, err error) bool {
	return p.resolve(correlationID, Outcome{Err: err})
}

// Len reports the number of unresolved slots.
func (p *PendingTable) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

func (p *PendingTable) resolve(correlationID string, out Outcome) bool {
	p.mu.Lock()
	slot, ok := p.slots[correlationID]
	if ok {
		delete(p.slots, correlationID)
	}
	p.mu.Unlock()

	if !ok {
		return false
	}
	if slot.timer != nil {
		slot.timer.Stop()
	}
	slot.ch <- out
	return true
}
