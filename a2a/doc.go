// Package a2a implements the agent-to-agent protocol: envelope
// construction, correlation and timeout semantics, and capability
// discovery.
//
// A REQUEST built with NewRequest carries a fresh correlation id and a
// deadline. The PendingTable is the correlation-keyed promise table: the
// caller registers a slot, a responder fulfills it via the matching
// RESPONSE, and an unanswered request resolves with a typed
// UpstreamTimeout error rather than hanging.
//
// Agents publish an AgentCard at startup; Registry.Discover returns the
// agents advertising a capability so the orchestrator can bind workflow
// steps without hard-coding agent identity.
package a2a
