// Package session tracks per-user conversation history and builds the
// size-bounded CompressedContext attached to outgoing requests, so agents
// receive enough history without unbounded payload growth.
package session
