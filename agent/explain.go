package agent

import (
	"context"
	"fmt"

	"github.com/discoverymesh/discoverymesh/a2a"
	"github.com/discoverymesh/discoverymesh/bus"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/internal/util"
	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/discoverymesh/discoverymesh/model"
)

const defaultExplainInstructions = "You are a product discovery assistant. " +
	"Explain concisely why the candidate products fit the user's request. " +
	"Do not invent products that are not listed."

const defaultExplainTemplate = `The user asked: {{.query}}
{{if .summary}}Earlier conversation: {{.summary}}
{{end}}Candidate products:
{{range .products}}- {{.}}
{{end}}Explain briefly why these products match the request.`

// ExplainOptions configures an ExplainAgent.
type ExplainOptions struct {
	// Logger receives agent diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// Instructions is the system prompt sent with every completion.
	Instructions string
	// Template renders the user prompt. It receives "query", "summary"
	// and "products" (a list of one-line product descriptions).
	Template string
}

// ExplainAgent serves the product.explain capability by asking the
// completion model to justify a set of candidate products.
type ExplainAgent struct {
	model model.Model
	opts  ExplainOptions
	card  a2a.AgentCard
}

// NewExplainAgent creates an ExplainAgent over a completion model.
func NewExplainAgent(m model.Model, optFns ...func(o *ExplainOptions)) *ExplainAgent {
	opts := ExplainOptions{
		Logger:       logging.NoOpLogger{},
		Instructions: defaultExplainInstructions,
		Template:     defaultExplainTemplate,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ExplainAgent{model: m, opts: opts}
	a.card = a2a.AgentCard{
		Name:        "explain-agent",
		Description: "Explains why retrieved products match the original request.",
		Capabilities: []a2a.Capability{{
			Operation: CapabilityExplain,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":    map[string]any{"type": "string"},
					"products": map[string]any{"type": "array"},
				},
				"required": []string{"query"},
			},
			OutputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"explanation": map[string]any{"type": "string"},
				},
			},
		}},
	}
	return a
}

// Card implements Agent.
func (a *ExplainAgent) Card() a2a.AgentCard { return a.card }

// Mount implements Agent.
func (a *ExplainAgent) Mount(b *bus.Bus) error {
	return b.Subscribe(CapabilityExplain, a.card.Name, a.handle)
}

func (a *ExplainAgent) handle(ctx context.Context, msg core.Message) (map[string]any, error) {
	if err := a2a.ValidateInput(msg.Payload, a.card.Capabilities[0].InputSchema); err != nil {
		return nil, err
	}
	query, _ := stringField(msg.Payload, "query")

	state := map[string]any{
		"query":    query,
		"products": productLines(anySliceField(msg.Payload, "products")),
	}
	if compressed := mapField(msg.Payload, "context"); compressed != nil {
		if summary, ok := stringField(compressed, "summary"); ok {
			state["summary"] = summary
		}
	}

	prompt, err := util.RenderTemplate(a.opts.Template, state)
	if err != nil {
		return nil, core.WrapError(core.KindValidation, "agent.explain", err)
	}

	resp, err := a.model.Complete(ctx, model.Request{
		Instructions: a.opts.Instructions,
		Messages:     []model.Message{{Role: "user", Text: prompt}},
	})
	if err != nil {
		return nil, err
	}
	if resp.Text == "" {
		return nil, core.NewError(core.KindInvalidResponse, "agent.explain",
			"model returned no explanation text")
	}

	a.opts.Logger.Debug("explanation served", "query", query, "tokens", resp.Usage.TotalTokens)
	return map[string]any{"explanation": resp.Text}, nil
}

// productLines flattens product payload maps into one-line descriptions
// for prompting.
func productLines(items []any) []any {
	lines := make([]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p := core.ProductFromPayload(m)
		line := p.Name
		if line == "" {
			line = p.ID
		}
		if p.Category != "" {
			line += " (" + p.Category + ")"
		}
		if p.Price > 0 {
			line += fmt.Sprintf(" $%.2f", p.Price)
		}
		lines = append(lines, line)
	}
	return lines
}
