// Package discoverymesh provides a high-level façade over the message
// bus, capability agents, workflow engine and orchestrator, enabling
// rapid construction of a product-discovery service. Most applications
// interact with this package by:
//  1. Creating a Mesh via New() (optionally overriding the model,
//     embedder, vector store and workflow definitions)
//  2. Indexing catalog products (IndexProduct) or supplying a pre-filled
//     vector store
//  3. Calling ProcessRequest with free-text user requests
//
// The façade delegates orchestration to orchestrator.Orchestrator while
// keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a
// real model provider, a durable vector store and a structured logger.
package discoverymesh

import (
	"context"
	"time"

	"github.com/discoverymesh/discoverymesh/a2a"
	"github.com/discoverymesh/discoverymesh/agent"
	"github.com/discoverymesh/discoverymesh/bus"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/embedding"
	"github.com/discoverymesh/discoverymesh/interaction"
	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/discoverymesh/discoverymesh/model"
	"github.com/discoverymesh/discoverymesh/orchestrator"
	"github.com/discoverymesh/discoverymesh/retrieval"
	"github.com/discoverymesh/discoverymesh/session"
	"github.com/discoverymesh/discoverymesh/workflow"
)

// Options configures the Mesh instance.
type Options struct {
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger

	// Model is the completion model behind the explain and classify
	// capabilities. Defaults to a MockModel.
	Model model.Model

	// Embedder turns query text into vectors. Defaults to a deterministic
	// in-process HashEmbedder.
	Embedder embedding.Embedder

	// Store is the vector store holding the product catalog. Defaults to
	// an in-memory store.
	Store retrieval.VectorStore

	// Interactions receives one append-only record per request. Defaults
	// to an in-memory log.
	Interactions interaction.Store

	// Collection is the catalog collection name. Defaults to "products".
	Collection string

	// SearchLimit is the default hit count for searches that do not set
	// their own limit. Zero keeps the agent default.
	SearchLimit int

	// OversampleFactor and MinPool size the MMR candidate pool. Zero keeps
	// the engine defaults.
	OversampleFactor int
	MinPool          int

	// Definitions are the workflow definitions to register. Defaults to
	// the built-in search / search_recommend / alternatives workflows.
	Definitions []workflow.Definition

	// DefaultWorkflowType is used when classification fails. Defaults to
	// "search".
	DefaultWorkflowType string

	// ContextBudget bounds compressed history attached to step requests.
	ContextBudget int

	// MaxHistoryTurns bounds per-user retained turns. Defaults to 20.
	MaxHistoryTurns int

	// StepTimeout and StepBackoff are executor defaults for steps that do
	// not set their own.
	StepTimeout time.Duration
	StepBackoff time.Duration
}

// Mesh is the high-level façade aggregating the bus, agents, workflow
// engine and orchestrator.
type Mesh struct {
	opts      Options
	bus       *bus.Bus
	registry  *a2a.Registry
	workflows *workflow.Registry
	store     retrieval.VectorStore
	embedder  embedding.Embedder
	history   *session.HistoryStore
	orc       *orchestrator.Orchestrator
}

// New creates a fully wired Mesh. Any unset collaborator is initialized
// with an in-memory implementation. It fails when a workflow definition
// is invalid or names a capability no agent advertises; treat that error
// as fatal at startup.
func New(optFns ...func(o *Options)) (*Mesh, error) {
	opts := Options{
		Logger:              logging.NoOpLogger{},
		Collection:          "products",
		DefaultWorkflowType: "search",
		ContextBudget:       session.DefaultContextBudget,
		MaxHistoryTurns:     20,
		StepTimeout:         10 * time.Second,
		StepBackoff:         100 * time.Millisecond,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == nil {
		opts.Model = model.NewMockModel("mock", "mock")
	}
	if opts.Embedder == nil {
		opts.Embedder = embedding.NewHashEmbedder(64)
	}
	if opts.Store == nil {
		opts.Store = retrieval.NewInMemoryStore()
	}
	if opts.Interactions == nil {
		opts.Interactions = interaction.NewInMemoryStore()
	}
	if opts.Definitions == nil {
		opts.Definitions = DefaultDefinitions()
	}

	m := &Mesh{
		opts:      opts,
		registry:  a2a.NewRegistry(),
		workflows: workflow.NewRegistry(),
		store:     opts.Store,
		embedder:  opts.Embedder,
		history:   session.NewHistoryStore(opts.MaxHistoryTurns),
	}

	m.bus = bus.New(func(o *bus.Options) {
		o.Logger = opts.Logger
		o.ContextBudget = opts.ContextBudget
	})

	for _, def := range opts.Definitions {
		if err := m.workflows.Register(def); err != nil {
			m.bus.Close()
			return nil, err
		}
	}

	engine := retrieval.NewEngine(m.store, func(o *retrieval.Options) {
		o.Logger = opts.Logger
		if opts.OversampleFactor > 0 {
			o.OversampleFactor = opts.OversampleFactor
		}
		if opts.MinPool > 0 {
			o.MinPool = opts.MinPool
		}
	})

	err := agent.MountAll(m.bus, m.registry,
		agent.NewSearchAgent(opts.Embedder, engine, func(o *agent.SearchOptions) {
			o.Logger = opts.Logger
			o.Collection = opts.Collection
			if opts.SearchLimit > 0 {
				o.DefaultLimit = opts.SearchLimit
			}
		}),
		agent.NewRecommendAgent(engine, func(o *agent.RecommendOptions) {
			o.Logger = opts.Logger
			o.Collection = opts.Collection
		}),
		agent.NewAlternativeAgent(m.store, engine, func(o *agent.AlternativeOptions) {
			o.Logger = opts.Logger
			o.Collection = opts.Collection
		}),
		agent.NewExplainAgent(opts.Model, func(o *agent.ExplainOptions) {
			o.Logger = opts.Logger
		}),
		agent.NewClassifierAgent(opts.Model, m.workflows.Types(), func(o *agent.ClassifierOptions) {
			o.Logger = opts.Logger
			o.DefaultType = opts.DefaultWorkflowType
		}),
	)
	if err != nil {
		m.bus.Close()
		return nil, err
	}

	executor := workflow.NewExecutor(m.bus, func(o *workflow.Options) {
		o.Logger = opts.Logger
		o.DefaultStepTimeout = opts.StepTimeout
		o.DefaultBackoff = opts.StepBackoff
	})

	m.orc = orchestrator.New(m.bus, m.registry, m.workflows, executor,
		func(o *orchestrator.Options) {
			o.Logger = opts.Logger
			o.DefaultWorkflowType = opts.DefaultWorkflowType
			o.Interactions = opts.Interactions
			o.History = m.history
		})

	if err := m.orc.ValidateBindings(); err != nil {
		m.bus.Close()
		return nil, err
	}
	return m, nil
}

// ProcessRequest runs one discovery request end to end. It always
// returns a structured response; see orchestrator.Orchestrator.
func (m *Mesh) ProcessRequest(ctx context.Context, text, userID string, extra map[string]any) orchestrator.Response {
	return m.orc.ProcessRequest(ctx, orchestrator.Request{Text: text, UserID: userID, Context: extra})
}

// IndexProduct embeds the given description text and upserts the product
// into the catalog collection.
func (m *Mesh) IndexProduct(ctx context.Context, p core.Product, description string) error {
	vector, err := m.embedder.Embed(ctx, description)
	if err != nil {
		return err
	}
	return m.store.Upsert(ctx, m.opts.Collection, []retrieval.Point{{
		ID:      p.ID,
		Vector:  vector,
		Payload: p.Payload(),
	}})
}

// Orchestrator exposes the underlying orchestrator, e.g. for mounting
// behind the HTTP server.
func (m *Mesh) Orchestrator() *orchestrator.Orchestrator { return m.orc }

// Bus exposes the message bus for mounting additional agents.
func (m *Mesh) Bus() *bus.Bus { return m.bus }

// Registry exposes the capability discovery registry.
func (m *Mesh) Registry() *a2a.Registry { return m.registry }

// Interactions exposes the interaction log.
func (m *Mesh) Interactions() interaction.Store { return m.opts.Interactions }

// Close stops the bus and drains in-flight handlers.
func (m *Mesh) Close() { m.bus.Close() }

// DefaultDefinitions returns the built-in workflow set: plain search,
// search feeding example-based recommendation, and alternatives for the
// top search hit. Every workflow ends with a non-required explain step so
// explanation failures degrade the response instead of failing it.
func DefaultDefinitions() []workflow.Definition {
	explain := func(dep string) workflow.Step {
		return workflow.Step{
			Name:       "explain",
			Capability: agent.CapabilityExplain,
			DependsOn:  []string{dep},
			Input: map[string]any{
				"query":    "request.text",
				"products": "steps." + dep + ".products",
			},
			Retry: workflow.RetryPolicy{MaxAttempts: 2, Backoff: 200 * time.Millisecond},
		}
	}

	search := workflow.Step{
		Name:       "search",
		Capability: agent.CapabilitySearch,
		Required:   true,
		Input:      map[string]any{"query": "request.text"},
		Retry:      workflow.RetryPolicy{MaxAttempts: 3, Backoff: 100 * time.Millisecond},
	}

	return []workflow.Definition{
		{
			ID:    "wf-search",
			Type:  "search",
			Steps: []workflow.Step{search, explain("search")},
		},
		{
			ID:   "wf-search-recommend",
			Type: "search_recommend",
			Steps: []workflow.Step{
				search,
				{
					Name:       "recommend",
					Capability: agent.CapabilityRecommend,
					Required:   true,
					DependsOn:  []string{"search"},
					Input:      map[string]any{"positive_ids": "steps.search.product_ids"},
					Retry:      workflow.RetryPolicy{MaxAttempts: 3, Backoff: 100 * time.Millisecond},
				},
				explain("recommend"),
			},
		},
		{
			ID:   "wf-alternatives",
			Type: "alternatives",
			Steps: []workflow.Step{
				search,
				{
					Name:       "alternatives",
					Capability: agent.CapabilityAlternatives,
					Required:   true,
					DependsOn:  []string{"search"},
					Input:      map[string]any{"product_id": "steps.search.top_id"},
					Retry:      workflow.RetryPolicy{MaxAttempts: 3, Backoff: 100 * time.Millisecond},
				},
				explain("alternatives"),
			},
		},
	}
}
