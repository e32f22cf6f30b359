// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language models inside DiscoveryMesh.
//
// Core goals:
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Classify provider failures with core.ErrorKind so callers can decide
//     what is retryable
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (agents, orchestrator) remain decoupled from
// vendor SDKs.
package model
