package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/discoverymesh/discoverymesh/bus"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/discoverymesh/discoverymesh/session"
)

// Request carries the original orchestration request into an execution.
type Request struct {
	// Payload is the original request payload steps resolve
	// "request.*" input references against.
	Payload map[string]any
	// History is attached (compressed) to every step request.
	History []session.Turn
	// CorrelationID groups all step traffic of one orchestration. At
	// most one execution may be live per correlation id.
	CorrelationID string
	// Priority applies to every step request.
	Priority core.Priority
}

// Options configures an Executor.
type Options struct {
	// Logger receives executor diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// DefaultStepTimeout bounds attempts of steps without an explicit
	// timeout.
	DefaultStepTimeout time.Duration
	// DefaultBackoff is the initial retry delay for steps that do not
	// set one.
	DefaultBackoff time.Duration
}

// Executor drives workflow executions over the message bus. Construct
// once and share; all state is per-execution.
type Executor struct {
	bus  *bus.Bus
	opts Options

	mu   sync.Mutex
	live map[string]string // correlation id -> execution id
}

// NewExecutor creates an Executor bound to a bus.
func NewExecutor(b *bus.Bus, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Logger:             logging.NoOpLogger{},
		DefaultStepTimeout: 10 * time.Second,
		DefaultBackoff:     100 * time.Millisecond,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{bus: b, opts: opts, live: make(map[string]string)}
}

// Execute runs the definition to a terminal Result. It never returns an
// error for step failures; those surface in the Result. The returned
// error covers only pre-flight conditions (invalid definition, duplicate
// live correlation id).
//
// Independent steps run concurrently; the executor waits for each layer
// of satisfied steps before advancing, so one layer's outputs are visible
// to the next. Cancelling ctx aborts in-flight step waits (FAILED) and
// skips the remaining PENDING steps.
func (ex *Executor) Execute(ctx context.Context, def Definition, req Request) (*Result, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if req.CorrelationID == "" {
		req.CorrelationID = core.NewID()
	}

	exec := newExecution(def, req.CorrelationID)
	ex.mu.Lock()
	if other, dup := ex.live[req.CorrelationID]; dup {
		ex.mu.Unlock()
		return nil, core.NewError(core.KindValidation, "workflow.execute",
			"correlation %s already live in execution %s", req.CorrelationID, other)
	}
	ex.live[req.CorrelationID] = exec.ExecutionID
	ex.mu.Unlock()
	defer func() {
		ex.mu.Lock()
		delete(ex.live, req.CorrelationID)
		ex.mu.Unlock()
	}()

	ex.opts.Logger.Info("workflow execution started",
		"workflow_id", def.ID, "execution_id", exec.ExecutionID, "correlation_id", req.CorrelationID)

	for exec.live() {
		if ctx.Err() != nil {
			exec.skipPending()
			break
		}
		layer := exec.runnable()
		if len(layer) == 0 {
			// No step is runnable and none is in flight: either the
			// cascade just resolved the remainder, or the graph cannot
			// make progress. Skip whatever is left rather than spin.
			exec.skipPending()
			break
		}

		var wg sync.WaitGroup
		for _, step := range layer {
			wg.Add(1)
			go func(step Step) {
				defer wg.Done()
				ex.runStep(ctx, exec, step, req)
			}(step)
		}
		wg.Wait()
	}

	res := exec.result()
	ex.opts.Logger.Info("workflow execution finished",
		"workflow_id", def.ID, "execution_id", exec.ExecutionID,
		"status", res.Status.String(), "failed", len(res.FailedSteps), "skipped", len(res.SkippedSteps))
	return res, nil
}

// runStep drives one step through its retry budget.
func (ex *Executor) runStep(ctx context.Context, exec *Execution, step Step, req Request) {
	exec.transition(step.Name, StepRunning)

	input := ResolveInput(step.Input, req.Payload, exec.snapshotOutputs())

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = ex.opts.DefaultStepTimeout
	}
	maxAttempts := step.Retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	initial := step.Retry.Backoff
	if initial <= 0 {
		initial = ex.opts.DefaultBackoff
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.RandomizationFactor = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxAttempts-1)), ctx)

	var output map[string]any
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		out, reqErr := ex.bus.Request(ctx, step.Capability, input,
			bus.WithSender("workflow:"+exec.WorkflowID),
			bus.WithPriority(req.Priority),
			bus.WithTimeout(timeout),
			bus.WithHistory(req.History),
		)
		if reqErr != nil {
			ex.opts.Logger.Warn("step attempt failed",
				"step", step.Name, "capability", step.Capability,
				"attempt", attempt, "error", reqErr)
			if core.IsKind(reqErr, core.KindValidation) {
				// Retrying a rejected input cannot succeed.
				return backoff.Permanent(reqErr)
			}
			return reqErr
		}
		output = out
		return nil
	}, policy)

	if err != nil {
		if core.KindOf(err) == core.KindUnknown {
			err = core.WrapError(core.KindStepFailure, "workflow.step", err)
		}
		exec.fail(step.Name, err)
		return
	}
	exec.complete(step.Name, output)
}
