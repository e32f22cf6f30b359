// Package interaction contains concrete implementations of the append-only
// interaction log, the single write path out of the orchestration core.
//
// Implementation packages can be swapped without touching calling code:
// the in-memory store serves tests and single-process prototypes, the
// JSONL store persists one record per line for offline analysis. Callers
// should depend on the Store interface rather than concrete types so they
// can substitute alternative persistence layers in tests or production.
package interaction
