package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/discoverymesh/discoverymesh/a2a"
	"github.com/discoverymesh/discoverymesh/agent"
	"github.com/discoverymesh/discoverymesh/bus"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/interaction"
	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/discoverymesh/discoverymesh/session"
	"github.com/discoverymesh/discoverymesh/workflow"
)

// Request is one incoming discovery request.
type Request struct {
	Text   string
	UserID string
	// Context carries caller-supplied extras merged into the workflow
	// request payload (reserved keys "text" and "user_id" win).
	Context map[string]any
}

// Response is the always-structured orchestration outcome.
type Response struct {
	Success         bool           `json:"success"`
	WorkflowType    string         `json:"workflow_type,omitempty"`
	Output          map[string]any `json:"output,omitempty"`
	Products        []core.Product `json:"products"`
	AgentsUsed      []string       `json:"agents_used"`
	ExecutionTimeMS int64          `json:"execution_time_ms"`
	Errors          []string       `json:"errors,omitempty"`
	IsPartial       bool           `json:"is_partial"`
}

// Options configures an Orchestrator.
type Options struct {
	// Logger receives orchestrator diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// DefaultWorkflowType is used when classification fails or yields an
	// unbound type. Defaults to "search".
	DefaultWorkflowType string
	// ClassifyTimeout bounds the intent classification call. Defaults to 5s.
	ClassifyTimeout time.Duration
	// Interactions, when set, receives one append-only record per request.
	Interactions interaction.Store
	// History, when set, supplies prior turns as compressed context and
	// records the new turn after each request.
	History *session.HistoryStore
}

// Orchestrator drives discovery requests end to end. Construct once and
// share across callers.
type Orchestrator struct {
	bus       *bus.Bus
	registry  *a2a.Registry
	workflows *workflow.Registry
	executor  *workflow.Executor
	opts      Options
}

// New creates an Orchestrator over an already-wired bus, capability
// registry, workflow registry and executor.
func New(b *bus.Bus, reg *a2a.Registry, workflows *workflow.Registry, executor *workflow.Executor, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Logger:              logging.NoOpLogger{},
		DefaultWorkflowType: "search",
		ClassifyTimeout:     5 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{bus: b, registry: reg, workflows: workflows, executor: executor, opts: opts}
}

// ValidateBindings checks that every capability named by a registered
// workflow is advertised by at least one agent. Call at startup; a missing
// binding is a configuration error and should be fatal.
func (o *Orchestrator) ValidateBindings() error {
	var missing []string
	for _, wfType := range o.workflows.Types() {
		def, _ := o.workflows.ByType(wfType)
		for _, capability := range def.Capabilities() {
			if len(o.registry.Discover(capability)) == 0 {
				missing = append(missing, fmt.Sprintf("%s (workflow %s)", capability, def.ID))
			}
		}
	}
	if len(missing) > 0 {
		return core.NewError(core.KindValidation, "orchestrator.bindings",
			"no agent advertises: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ProcessRequest runs one request to a structured Response. It never
// returns an error and never panics: failures are folded into
// Response.Errors with Success/IsPartial set accordingly.
func (o *Orchestrator) ProcessRequest(ctx context.Context, req Request) (resp Response) {
	started := time.Now()
	workflowID := ""

	defer func() {
		if r := recover(); r != nil {
			o.opts.Logger.Error("orchestration panic recovered", "panic", r, "user_id", req.UserID)
			resp = Response{
				Success:  false,
				Products: []core.Product{},
				Errors:   []string{fmt.Sprintf("internal: %v", r)},
			}
		}
		resp.ExecutionTimeMS = time.Since(started).Milliseconds()
		if resp.Products == nil {
			resp.Products = []core.Product{}
		}
		if resp.AgentsUsed == nil {
			resp.AgentsUsed = []string{}
		}
		o.record(req, resp, workflowID)
	}()

	if strings.TrimSpace(req.Text) == "" {
		return Response{
			Success:  false,
			Products: []core.Product{},
			Errors:   []string{"validation: request text is required"},
		}
	}

	var history []session.Turn
	if o.opts.History != nil && req.UserID != "" {
		history = o.opts.History.Turns(req.UserID)
	}

	wfType := o.classify(ctx, req.Text)
	def, ok := o.workflows.ByType(wfType)
	if !ok {
		o.opts.Logger.Warn("no workflow bound to type, using default",
			"type", wfType, "default", o.opts.DefaultWorkflowType)
		def, ok = o.workflows.ByType(o.opts.DefaultWorkflowType)
		if !ok {
			return Response{
				Success:  false,
				Products: []core.Product{},
				Errors:   []string{fmt.Sprintf("validation: no workflow bound to type %q", wfType)},
			}
		}
	}
	workflowID = def.ID

	payload := map[string]any{}
	for k, v := range req.Context {
		payload[k] = v
	}
	payload["text"] = req.Text
	payload["user_id"] = req.UserID

	result, err := o.executor.Execute(ctx, def, workflow.Request{
		Payload: payload,
		History: history,
	})
	if err != nil {
		return Response{
			Success:  false,
			Products: []core.Product{},
			Errors:   []string{err.Error()},
		}
	}

	resp = o.aggregate(def, result)
	resp.WorkflowType = def.Type

	if o.opts.History != nil && req.UserID != "" {
		o.opts.History.Append(req.UserID, req.Text, turnSummary(def.Type, resp))
	}
	return resp
}

// classify asks the intent capability for a workflow type. Any failure
// degrades to the default type; classification never fails a request.
func (o *Orchestrator) classify(ctx context.Context, text string) string {
	out, err := o.bus.Request(ctx, agent.CapabilityClassify, map[string]any{"text": text},
		bus.WithSender("orchestrator"),
		bus.WithPriority(core.PriorityHigh),
		bus.WithTimeout(o.opts.ClassifyTimeout),
	)
	if err != nil {
		o.opts.Logger.Warn("intent classification failed, using default",
			"error", err, "default", o.opts.DefaultWorkflowType)
		return o.opts.DefaultWorkflowType
	}
	wfType, ok := out["workflow_type"].(string)
	if !ok || wfType == "" {
		return o.opts.DefaultWorkflowType
	}
	return wfType
}

// record appends the interaction to the configured log. Logging failures
// are reported but never affect the response.
func (o *Orchestrator) record(req Request, resp Response, workflowID string) {
	if o.opts.Interactions == nil {
		return
	}
	rec := interaction.Record{
		ID:         core.NewID(),
		UserID:     req.UserID,
		Text:       req.Text,
		WorkflowID: workflowID,
		Success:    resp.Success,
		IsPartial:  resp.IsPartial,
		Products:   len(resp.Products),
		AgentsUsed: resp.AgentsUsed,
		Errors:     resp.Errors,
		DurationMS: resp.ExecutionTimeMS,
		At:         time.Now().UTC(),
	}
	if err := o.opts.Interactions.Append(context.Background(), rec); err != nil {
		o.opts.Logger.Warn("interaction log append failed", "error", err)
	}
}

func turnSummary(wfType string, resp Response) string {
	status := "completed"
	switch {
	case resp.IsPartial:
		status = "partial"
	case !resp.Success:
		status = "failed"
	}
	return fmt.Sprintf("%d products via %s (%s)", len(resp.Products), wfType, status)
}
