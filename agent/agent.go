package agent

import (
	"github.com/discoverymesh/discoverymesh/a2a"
	"github.com/discoverymesh/discoverymesh/bus"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/retrieval"
)

// Capability topics served by the built-in agents. Workflow steps name
// these operations; the bus routes each to whichever agent mounted it.
const (
	CapabilitySearch       = "product.search"
	CapabilityRecommend    = "product.recommend"
	CapabilityAlternatives = "product.alternatives"
	CapabilityExplain      = "product.explain"
	CapabilityClassify     = "intent.classify"
)

// Agent is a capability worker mounted on the message bus.
type Agent interface {
	// Card returns the static discovery record published at mount time.
	Card() a2a.AgentCard

	// Mount subscribes the agent's capability handlers on the bus.
	Mount(b *bus.Bus) error
}

// MountAll mounts every agent and publishes its card for discovery.
// Wiring stops at the first failure.
func MountAll(b *bus.Bus, reg *a2a.Registry, agents ...Agent) error {
	for _, ag := range agents {
		if err := ag.Mount(b); err != nil {
			return err
		}
		if err := reg.Register(ag.Card()); err != nil {
			return err
		}
	}
	return nil
}

// productPayloads converts retrieval hits into transport-shaped product
// maps, stamping the producing agent as the source.
func productPayloads(results []retrieval.Result, source string) []any {
	out := make([]any, 0, len(results))
	for _, r := range results {
		p := core.ProductFromPayload(r.Payload)
		p.ID = r.ID
		p.Score = r.Score
		p.Source = source
		out = append(out, p.Payload())
	}
	return out
}
