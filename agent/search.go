package agent

import (
	"context"

	"github.com/discoverymesh/discoverymesh/a2a"
	"github.com/discoverymesh/discoverymesh/bus"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/embedding"
	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/discoverymesh/discoverymesh/retrieval"
)

// SearchOptions configures a SearchAgent.
type SearchOptions struct {
	// Logger receives agent diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// Collection is the catalog collection searched. Defaults to "products".
	Collection string
	// DefaultLimit applies when the request omits a limit. Defaults to 10.
	DefaultLimit int
	// DefaultDiversity applies to diverse-mode searches without an explicit
	// diversity value. Defaults to 0.5.
	DefaultDiversity float64
}

// SearchAgent serves the product.search capability: it embeds the query
// text and runs semantic or MMR-diversified retrieval against the catalog.
type SearchAgent struct {
	embedder embedding.Embedder
	engine   *retrieval.Engine
	opts     SearchOptions
	card     a2a.AgentCard
}

// NewSearchAgent creates a SearchAgent over an embedder and a retrieval
// engine.
func NewSearchAgent(embedder embedding.Embedder, engine *retrieval.Engine, optFns ...func(o *SearchOptions)) *SearchAgent {
	opts := SearchOptions{
		Logger:           logging.NoOpLogger{},
		Collection:       "products",
		DefaultLimit:     10,
		DefaultDiversity: 0.5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &SearchAgent{embedder: embedder, engine: engine, opts: opts}
	a.card = a2a.AgentCard{
		Name:        "search-agent",
		Description: "Embeds free-text queries and retrieves matching catalog products.",
		Capabilities: []a2a.Capability{{
			Operation: CapabilitySearch,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":           map[string]any{"type": "string", "description": "Free-text product query"},
					"limit":           map[string]any{"type": "integer"},
					"mode":            map[string]any{"type": "string", "description": `"semantic" (default) or "diverse"`},
					"diversity":       map[string]any{"type": "number"},
					"score_threshold": map[string]any{"type": "number"},
					"filters":         map[string]any{"type": "object"},
				},
				"required": []string{"query"},
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
func (a *SearchAgent) Card() a2a.AgentCard { return a.card }

// Mount implements Agent.
func (a *SearchAgent) Mount(b *bus.Bus) error {
	return b.Subscribe(CapabilitySearch, a.card.Name, a.handle)
}

func (a *SearchAgent) handle(ctx context.Context, msg core.Message) (map[string]any, error) {
	if err := a2a.ValidateInput(msg.Payload, a.card.Capabilities[0].InputSchema); err != nil {
		return nil, err
	}
	query, _ := stringField(msg.Payload, "query")

	limit := a.opts.DefaultLimit
	if v, ok := intField(msg.Payload, "limit"); ok && v > 0 {
		limit = v
	}

	vector, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	q := retrieval.SearchQuery{
		Collection: a.opts.Collection,
		Vector:     vector,
		Limit:      limit,
		Filters:    mapField(msg.Payload, "filters"),
	}
	if v, ok := floatField(msg.Payload, "score_threshold"); ok {
		q.ScoreThreshold = v
	}

	var results []retrieval.Result
	if mode, _ := stringField(msg.Payload, "mode"); mode == "diverse" {
		diversity := a.opts.DefaultDiversity
		if v, ok := floatField(msg.Payload, "diversity"); ok {
			diversity = v
		}
		results, err = a.engine.MMRSearch(ctx, q, diversity)
	} else {
		results, err = a.engine.SemanticSearch(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	// product_ids and top_id let later workflow steps chain on this one
	// without digging through product maps.
	ids := make([]any, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	topID := ""
	if len(results) > 0 {
		topID = results[0].ID
	}

	a.opts.Logger.Debug("search served", "query", query, "hits", len(results))
	return map[string]any{
		"products":    productPayloads(results, a.card.Name),
		"product_ids": ids,
		"top_id":      topID,
		"count":       len(results),
		"query":       query,
	}, nil
}
