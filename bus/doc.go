// Package bus implements the topic-based message bus built on the a2a
// protocol: publish/subscribe fan-out for events and broadcasts, and
// request/response with correlation-keyed waiting.
//
// Each subscriber owns a priority queue drained by a dedicated consumer
// goroutine: CRITICAL is serviced before HIGH before NORMAL before LOW,
// FIFO within a priority class. Request callers suspend on a pending slot
// without blocking other bus activity; an unanswered request resolves with
// a typed UpstreamTimeout error.
//
// When a caller supplies conversational history, the bus attaches a
// size-bounded CompressedContext to the outgoing request payload under the
// "context" key.
package bus
