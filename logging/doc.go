// Package logging provides a minimal logging interface for DiscoveryMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the bus, workflow engine and orchestrator use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - ZerologAdapter wrapping rs/zerolog for structured output
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// The design intentionally keeps the interface minimal so callers can plug
// any structured logger without vendor lock-in.
package logging
