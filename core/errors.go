package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can branch on the category
// without string matching. Partial failure is a first-class value in
// DiscoveryMesh: step failures are folded into the final response, never
// thrown across agent boundaries.
type ErrorKind int

const (
	// KindUnknown is the zero value for errors produced outside this package.
	KindUnknown ErrorKind = iota
	// KindValidation marks a malformed request, filter or capability input.
	KindValidation
	// KindUpstreamTimeout marks an LLM, vector-store or bus deadline overrun.
	KindUpstreamTimeout
	// KindUpstreamFailure marks a non-timeout dependency error.
	KindUpstreamFailure
	// KindStepFailure marks a business-logic failure inside an agent
	// capability after retries are exhausted.
	KindStepFailure
	// KindAggregationConflict marks two steps producing irreconcilable
	// outputs for the same key. Resolved last-writer-wins, never fatal.
	KindAggregationConflict
	// KindRateLimited marks an LLM provider throttling the caller.
	KindRateLimited
	// KindInvalidResponse marks an LLM reply that cannot be interpreted.
	KindInvalidResponse
)

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindUpstreamTimeout:
		return "UpstreamTimeout"
	case KindUpstreamFailure:
		return "UpstreamFailure"
	case KindStepFailure:
		return "StepFailure"
	case KindAggregationConflict:
		return "AggregationConflict"
	case KindRateLimited:
		return "RateLimited"
	case KindInvalidResponse:
		return "InvalidResponse"
	default:
		return "Unknown"
	}
}

// Error is the typed error carried through the bus and workflow engine.
// Op names the operation that failed (e.g. "bus.request", "retrieval.mmr").
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	}
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so sentinel comparison works across wrapping layers.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// NewError builds a typed error with a formatted message.
func NewError(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches kind and op to an underlying cause.
func WrapError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the ErrorKind from err, unwrapping as needed.
// Non-typed errors report KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool { return KindOf(err) == kind }
