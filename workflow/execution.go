package workflow

import (
	"sync"
	"time"

	"github.com/discoverymesh/discoverymesh/core"
)

// StepStatus is the per-step state machine. Transitions are monotonic:
// PENDING -> RUNNING -> {COMPLETED, FAILED}, or PENDING -> SKIPPED.
type StepStatus int

const (
	// StepPending awaits its dependencies.
	StepPending StepStatus = iota
	// StepRunning has been dispatched to the bus.
	StepRunning
	// StepCompleted finished with a successful response.
	StepCompleted
	// StepFailed exhausted its retry budget.
	StepFailed
	// StepSkipped never ran: a required dependency failed or the
	// execution was cancelled.
	StepSkipped
)

// String returns the status name.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "PENDING"
	case StepRunning:
		return "RUNNING"
	case StepCompleted:
		return "COMPLETED"
	case StepFailed:
		return "FAILED"
	case StepSkipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

func (s StepStatus) terminal() bool {
	return s == StepCompleted || s == StepFailed || s == StepSkipped
}

// Status classifies a finished workflow execution.
type Status int

const (
	// StatusCompleted: every required step completed.
	StatusCompleted Status = iota
	// StatusPartial: at least one required step completed, but not all.
	StatusPartial
	// StatusFailed: no required step completed.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "COMPLETED"
	case StatusPartial:
		return "PARTIAL"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Result is the terminal outcome of a workflow execution.
type Result struct {
	ExecutionID   string
	WorkflowID    string
	CorrelationID string
	Status        Status
	StepOutputs   map[string]map[string]any
	FailedSteps   []string
	SkippedSteps  []string
	// Errors maps each failed step to its terminal error.
	Errors     map[string]error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Execution tracks one live run of a definition. Mutated only by the
// executor; guarded because independent steps run concurrently.
type Execution struct {
	ExecutionID   string
	WorkflowID    string
	CorrelationID string
	StartedAt     time.Time

	mu       sync.Mutex
	def      Definition
	statuses map[string]StepStatus
	outputs  map[string]map[string]any
	errors   map[string]error
}

func newExecution(def Definition, correlationID string) *Execution {
	statuses := make(map[string]StepStatus, len(def.Steps))
	for _, s := range def.Steps {
		statuses[s.Name] = StepPending
	}
	return &Execution{
		ExecutionID:   core.NewID(),
		WorkflowID:    def.ID,
		CorrelationID: correlationID,
		StartedAt:     time.Now().UTC(),
		def:           def,
		statuses:      statuses,
		outputs:       make(map[string]map[string]any),
		errors:        make(map[string]error),
	}
}

// transition applies a monotonic step transition, ignoring any attempt to
// move a terminal step.
func (e *Execution) transition(step string, to StepStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.statuses[step].terminal() {
		return
	}
	e.statuses[step] = to
}

func (e *Execution) complete(step string, output map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.statuses[step].terminal() {
		return
	}
	e.statuses[step] = StepCompleted
	e.outputs[step] = output
}

func (e *Execution) fail(step string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.statuses[step].terminal() {
		return
	}
	e.statuses[step] = StepFailed
	e.errors[step] = err
}

// Status returns the current status of a step.
func (e *Execution) Status(step string) StepStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statuses[step]
}

// snapshotOutputs copies completed step outputs for input resolution.
func (e *Execution) snapshotOutputs() map[string]map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]map[string]any, len(e.outputs))
	for k, v := range e.outputs {
		out[k] = v
	}
	return out
}

// runnable returns steps ready to dispatch, applying cascading skips
// first: a PENDING required step with a failed or skipped dependency is
// skipped outright; non-required dependents run once all dependencies are
// terminal.
func (e *Execution) runnable() []Step {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Cascade until stable so chains of required steps skip in one pass.
	for changed := true; changed; {
		changed = false
		for _, s := range e.def.Steps {
			if e.statuses[s.Name] != StepPending || !s.Required {
				continue
			}
			for _, dep := range s.DependsOn {
				if st := e.statuses[dep]; st == StepFailed || st == StepSkipped {
					e.statuses[s.Name] = StepSkipped
					changed = true
					break
				}
			}
		}
	}

	var ready []Step
	for _, s := range e.def.Steps {
		if e.statuses[s.Name] != StepPending {
			continue
		}
		depsTerminal := true
		for _, dep := range s.DependsOn {
			if !e.statuses[dep].terminal() {
				depsTerminal = false
				break
			}
		}
		if depsTerminal {
			ready = append(ready, s)
		}
	}
	return ready
}

// live reports whether any step is still PENDING or RUNNING.
func (e *Execution) live() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, st := range e.statuses {
		if !st.terminal() {
			return true
		}
	}
	return false
}

// skipPending marks every remaining PENDING step SKIPPED (cancellation).
func (e *Execution) skipPending() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, st := range e.statuses {
		if st == StepPending {
			e.statuses[name] = StepSkipped
		}
	}
}

// result freezes the execution into its terminal Result.
func (e *Execution) result() *Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := &Result{
		ExecutionID:   e.ExecutionID,
		WorkflowID:    e.WorkflowID,
		CorrelationID: e.CorrelationID,
		StepOutputs:   make(map[string]map[string]any, len(e.outputs)),
		Errors:        make(map[string]error, len(e.errors)),
		StartedAt:     e.StartedAt,
		FinishedAt:    time.Now().UTC(),
	}
	for k, v := range e.outputs {
		res.StepOutputs[k] = v
	}
	for k, v := range e.errors {
		res.Errors[k] = v
	}

	requiredTotal, requiredDone := 0, 0
	for _, s := range e.def.Steps {
		switch e.statuses[s.Name] {
		case StepFailed:
			res.FailedSteps = append(res.FailedSteps, s.Name)
		case StepSkipped:
			res.SkippedSteps = append(res.SkippedSteps, s.Name)
		}
		if s.Required {
			requiredTotal++
			if e.statuses[s.Name] == StepCompleted {
				requiredDone++
			}
		}
	}

	switch {
	case len(res.FailedSteps) == 0 && len(res.SkippedSteps) == 0:
		res.Status = StatusCompleted
	case requiredDone == requiredTotal && len(res.StepOutputs) > 0:
		// Every required step completed; optional failures degrade the
		// run to partial.
		res.Status = StatusPartial
	case requiredDone > 0:
		res.Status = StatusPartial
	default:
		res.Status = StatusFailed
	}
	return res
}
