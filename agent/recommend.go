package agent

import (
	"context"

	"github.com/discoverymesh/discoverymesh/a2a"
	"github.com/discoverymesh/discoverymesh/bus"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/discoverymesh/discoverymesh/retrieval"
)

// RecommendOptions configures a RecommendAgent.
type RecommendOptions struct {
	// Logger receives agent diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// Collection is the catalog collection searched. Defaults to "products".
	Collection string
	// DefaultLimit applies when the request omits a limit. Defaults to 10.
	DefaultLimit int
}

// RecommendAgent serves the product.recommend capability: example-based
// "more like these, less like those" retrieval.
type RecommendAgent struct {
	engine *retrieval.Engine
	opts   RecommendOptions
	card   a2a.AgentCard
}

// NewRecommendAgent creates a RecommendAgent over a retrieval engine.
func NewRecommendAgent(engine *retrieval.Engine, optFns ...func(o *RecommendOptions)) *RecommendAgent {
	opts := RecommendOptions{
		Logger:       logging.NoOpLogger{},
		Collection:   "products",
		DefaultLimit: 10,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &RecommendAgent{engine: engine, opts: opts}
	a.card = a2a.AgentCard{
		Name:        "recommend-agent",
		Description: "Recommends catalog products from positive and negative example ids.",
		Capabilities: []a2a.Capability{{
			Operation: CapabilityRecommend,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"positive_ids": map[string]any{"type": "array", "description": "Example product ids to move towards"},
					"negative_ids": map[string]any{"type": "array", "description": "Example product ids to move away from"},
					"limit":        map[string]any{"type": "integer"},
					"filters":      map[string]any{"type": "object"},
				},
				"required": []string{"positive_ids"},
			},
			OutputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"products": map[string]any{"type": "array"},
					"count":    map[string]any{"type": "integer"},
					"warnings": map[string]any{"type": "array"},
				},
			},
		}},
	}
	return a
}

// Card implements Agent.
func (a *RecommendAgent) Card() a2a.AgentCard { return a.card }

// Mount implements Agent.
func (a *RecommendAgent) Mount(b *bus.Bus) error {
	return b.Subscribe(CapabilityRecommend, a.card.Name, a.handle)
}

func (a *RecommendAgent) handle(ctx context.Context, msg core.Message) (map[string]any, error) {
	if err := a2a.ValidateInput(msg.Payload, a.card.Capabilities[0].InputSchema); err != nil {
		return nil, err
	}

	q := retrieval.RecommendQuery{
		Collection:  a.opts.Collection,
		PositiveIDs: stringSliceField(msg.Payload, "positive_ids"),
		NegativeIDs: stringSliceField(msg.Payload, "negative_ids"),
		Limit:       a.opts.DefaultLimit,
		Filters:     mapField(msg.Payload, "filters"),
	}
	if v, ok := intField(msg.Payload, "limit"); ok && v > 0 {
		q.Limit = v
	}

	resp, err := a.engine.Recommend(ctx, q)
	if err != nil {
		return nil, err
	}

	warnings := make([]any, 0, len(resp.Warnings))
	for _, w := range resp.Warnings {
		a.opts.Logger.Warn("recommend example skipped", "error", w)
		warnings = append(warnings, w.Error())
	}

	return map[string]any{
		"products": productPayloads(resp.Results, a.card.Name),
		"count":    len(resp.Results),
		"warnings": warnings,
	}, nil
}
