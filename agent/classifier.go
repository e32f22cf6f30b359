package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/discoverymesh/discoverymesh/a2a"
	"github.com/discoverymesh/discoverymesh/bus"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/discoverymesh/discoverymesh/model"
)

const classifyToolName = "classify_intent"

const defaultClassifyInstructions = "You classify product discovery requests. " +
	"Call the classify_intent tool with exactly one of the registered workflow types."

// ClassifierOptions configures a ClassifierAgent.
type ClassifierOptions struct {
	// Logger receives agent diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// DefaultType is returned when no signal resolves a type. Defaults to
	// the first registered type.
	DefaultType string
	// Instructions is the system prompt sent with every completion.
	Instructions string
}

// ClassifierAgent serves the intent.classify capability. It asks the
// model to pick one of the registered workflow types via tool call, falls
// back to scanning the model's plain text, and finally to keyword
// heuristics, so a degraded model never fails classification outright.
type ClassifierAgent struct {
	model model.Model
	types []string
	opts  ClassifierOptions
	card  a2a.AgentCard
}

// NewClassifierAgent creates a ClassifierAgent choosing among the given
// workflow types. The type list must not be empty.
func NewClassifierAgent(m model.Model, types []string, optFns ...func(o *ClassifierOptions)) *ClassifierAgent {
	opts := ClassifierOptions{
		Logger:       logging.NoOpLogger{},
		Instructions: defaultClassifyInstructions,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.DefaultType == "" && len(types) > 0 {
		opts.DefaultType = types[0]
	}

	a := &ClassifierAgent{model: m, types: types, opts: opts}
	a.card = a2a.AgentCard{
		Name:        "classifier-agent",
		Description: "Classifies free-text requests into a registered workflow type.",
		Capabilities: []a2a.Capability{{
			Operation: CapabilityClassify,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{"type": "string", "description": "The raw user request"},
				},
				"required": []string{"text"},
			},
			OutputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"workflow_type": map[string]any{"type": "string"},
					"method":        map[string]any{"type": "string"},
				},
			},
		}},
	}
	return a
}

// Card implements Agent.
func (a *ClassifierAgent) Card() a2a.AgentCard { return a.card }

// Mount implements Agent.
func (a *ClassifierAgent) Mount(b *bus.Bus) error {
	return b.Subscribe(CapabilityClassify, a.card.Name, a.handle)
}

func (a *ClassifierAgent) handle(ctx context.Context, msg core.Message) (map[string]any, error) {
	if err := a2a.ValidateInput(msg.Payload, a.card.Capabilities[0].InputSchema); err != nil {
		return nil, err
	}
	if len(a.types) == 0 {
		return nil, core.NewError(core.KindValidation, "agent.classify", "no workflow types registered")
	}
	text, _ := stringField(msg.Payload, "text")

	resp, err := a.model.Complete(ctx, model.Request{
		Instructions: a.opts.Instructions,
		Messages:     []model.Message{{Role: "user", Text: text}},
		Tools: []model.ToolDefinition{{
			Name:        classifyToolName,
			Description: "Select the workflow type matching the user request.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"workflow_type": map[string]any{"type": "string", "enum": a.types},
				},
				"required": []any{"workflow_type"},
			},
		}},
	})
	if err != nil {
		a.opts.Logger.Warn("classification model unavailable, using keywords", "error", err)
		return a.classified(a.keywordType(text), "keyword"), nil
	}

	if t, ok := a.fromToolCall(resp.ToolCalls); ok {
		return a.classified(t, "tool_call"), nil
	}
	if t, ok := a.fromText(resp.Text); ok {
		return a.classified(t, "text"), nil
	}
	return a.classified(a.keywordType(text), "keyword"), nil
}

func (a *ClassifierAgent) classified(workflowType, method string) map[string]any {
	return map[string]any{"workflow_type": workflowType, "method": method}
}

// fromToolCall extracts a registered type from a classify_intent call.
func (a *ClassifierAgent) fromToolCall(calls []model.ToolCall) (string, bool) {
	for _, call := range calls {
		if call.Name != classifyToolName {
			continue
		}
		var args struct {
			WorkflowType string `json:"workflow_type"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			continue
		}
		if a.known(args.WorkflowType) {
			return args.WorkflowType, true
		}
	}
	return "", false
}

// fromText scans the model's plain answer for a registered type name.
// Longest names win so "search" never shadows "search_recommend".
func (a *ClassifierAgent) fromText(text string) (string, bool) {
	lowered := strings.ToLower(text)
	match := ""
	for _, t := range a.types {
		if strings.Contains(lowered, strings.ToLower(t)) && len(t) > len(match) {
			match = t
		}
	}
	return match, match != ""
}

// keywordType is the last-resort heuristic over the raw request text.
func (a *ClassifierAgent) keywordType(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "alternative") || strings.Contains(lowered, "instead of"):
		if t, ok := a.typeContaining("alternative"); ok {
			return t
		}
	case strings.Contains(lowered, "recommend") || strings.Contains(lowered, "similar") ||
		strings.Contains(lowered, "like "):
		if t, ok := a.typeContaining("recommend"); ok {
			return t
		}
	}
	return a.opts.DefaultType
}

func (a *ClassifierAgent) known(t string) bool {
	for _, known := range a.types {
		if known == t {
			return true
		}
	}
	return false
}

func (a *ClassifierAgent) typeContaining(substr string) (string, bool) {
	for _, t := range a.types {
		if strings.Contains(t, substr) {
			return t, true
		}
	}
	return "", false
}
