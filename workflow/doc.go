// Package workflow implements the declarative workflow layer: step graphs
// with dependency edges, an immutable definition registry, the per-step
// state machine and the executor that drives steps through the message
// bus.
//
// Step lifecycle: PENDING -> RUNNING -> {COMPLETED, FAILED, SKIPPED}.
// Independent steps run concurrently; a step becomes runnable once all of
// its declared dependencies completed. A required step whose dependency
// failed is skipped (cascading skip); non-required dependents still
// attempt to run. Retries are local to the executor and invisible to the
// caller: each attempt is a bus request with exponential backoff between
// attempts, and only the terminal FAILED state surfaces in the result.
package workflow
