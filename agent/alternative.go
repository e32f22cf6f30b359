package agent

import (
	"context"

	"github.com/discoverymesh/discoverymesh/a2a"
	"github.com/discoverymesh/discoverymesh/bus"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/discoverymesh/discoverymesh/retrieval"
)

// AlternativeOptions configures an AlternativeAgent.
type AlternativeOptions struct {
	// Logger receives agent diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// Collection is the catalog collection searched. Defaults to "products".
	Collection string
	// DefaultLimit applies when the request omits a limit. Defaults to 5.
	DefaultLimit int
	// Diversity is the MMR diversity used to spread alternatives.
	// Defaults to 0.7.
	Diversity float64
	// SameCategory restricts alternatives to the original product's
	// category when it has one. Defaults to true.
	SameCategory bool
}

// AlternativeAgent serves the product.alternatives capability: diverse
// substitutes for a given catalog product.
type AlternativeAgent struct {
	store  retrieval.VectorStore
	engine *retrieval.Engine
	opts   AlternativeOptions
	card   a2a.AgentCard
}

// NewAlternativeAgent creates an AlternativeAgent. It needs direct store
// access to resolve the anchor product's vector before re-ranking.
func NewAlternativeAgent(store retrieval.VectorStore, engine *retrieval.Engine, optFns ...func(o *AlternativeOptions)) *AlternativeAgent {
	opts := AlternativeOptions{
		Logger:       logging.NoOpLogger{},
		Collection:   "products",
		DefaultLimit: 5,
		Diversity:    0.7,
		SameCategory: true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &AlternativeAgent{store: store, engine: engine, opts: opts}
	a.card = a2a.AgentCard{
		Name:        "alternative-agent",
		Description: "Finds diverse substitutes for a given catalog product.",
		Capabilities: []a2a.Capability{{
			Operation: CapabilityAlternatives,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product_id": map[string]any{"type": "string", "description": "Anchor product id"},
					"limit":      map[string]any{"type": "integer"},
					"filters":    map[string]any{"type": "object"},
				},
				"required": []string{"product_id"},
			},
			OutputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"products": map[string]any{"type": "array"},
					"count":    map[string]any{"type": "integer"},
				},
			},
		}},
	}
	return a
}

// Card implements Agent.
func (a *AlternativeAgent) Card() a2a.AgentCard { return a.card }

// Mount implements Agent.
func (a *AlternativeAgent) Mount(b *bus.Bus) error {
	return b.Subscribe(CapabilityAlternatives, a.card.Name, a.handle)
}

func (a *AlternativeAgent) handle(ctx context.Context, msg core.Message) (map[string]any, error) {
	if err := a2a.ValidateInput(msg.Payload, a.card.Capabilities[0].InputSchema); err != nil {
		return nil, err
	}
	productID, _ := stringField(msg.Payload, "product_id")

	anchors, err := a.store.Fetch(ctx, a.opts.Collection, []string{productID})
	if err != nil {
		return nil, err
	}
	if len(anchors) == 0 {
		return nil, core.NewError(core.KindValidation, "agent.alternatives",
			"product %q not found in collection %q", productID, a.opts.Collection)
	}
	anchor := anchors[0]

	limit := a.opts.DefaultLimit
	if v, ok := intField(msg.Payload, "limit"); ok && v > 0 {
		limit = v
	}

	filters := map[string]any{}
	for k, v := range mapField(msg.Payload, "filters") {
		filters[k] = v
	}
	if a.opts.SameCategory {
		if category, ok := anchor.Payload["category"].(string); ok && category != "" {
			filters["category"] = map[string]any{"match": category}
		}
	}

	// Oversample by one so dropping the anchor itself still fills the limit.
	results, err := a.engine.MMRSearch(ctx, retrieval.SearchQuery{
		Collection: a.opts.Collection,
		Vector:     anchor.Vector,
		Limit:      limit + 1,
		Filters:    filters,
	}, a.opts.Diversity)
	if err != nil {
		return nil, err
	}

	alternatives := make([]retrieval.Result, 0, limit)
	for _, r := range results {
		if r.ID == productID {
			continue
		}
		alternatives = append(alternatives, r)
		if len(alternatives) >= limit {
			break
		}
	}

	a.opts.Logger.Debug("alternatives served", "product_id", productID, "hits", len(alternatives))
	return map[string]any{
		"products": productPayloads(alternatives, a.card.Name),
		"count":    len(alternatives),
	}, nil
}
