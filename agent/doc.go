// Package agent contains the capability agents that serve discovery
// requests over the message bus. The package focuses on three concerns:
//
//  1. A minimal Agent contract (Card + Mount) and MountAll wiring helper
//  2. Retrieval-backed capabilities (SearchAgent, RecommendAgent,
//     AlternativeAgent)
//  3. Model-backed capabilities (ExplainAgent, ClassifierAgent)
//
// Design principles:
//   - No hidden global state; every agent receives its collaborators
//     (embedder, retrieval engine, model) at construction
//   - Agents advertise an a2a.AgentCard so workflow steps bind to
//     capability operations, never to concrete agent identities
//   - Failures are typed core errors so the workflow executor can decide
//     what is retryable
//
// The package intentionally keeps vector-store specifics, model provider
// specifics and orchestration policy in their respective packages.
package agent
