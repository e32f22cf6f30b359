// Package orchestrator turns one natural-language discovery request into
// a coordinated set of agent invocations and merges their partial results
// into a single structured response.
//
// ProcessRequest is the only entry point. It classifies the request via
// the intent capability, selects the bound workflow definition, drives it
// through the workflow executor, and aggregates the step outputs. It is
// the top-level error boundary of the system: step failures, timeouts and
// even panics become entries in the response's Errors list, never an
// escaping error.
package orchestrator
