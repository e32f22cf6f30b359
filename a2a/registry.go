package a2a

import (
	"sort"
	"sync"

	"github.com/discoverymesh/discoverymesh/core"
)

// Capability describes one operation an agent can perform. Schemas are
// JSON-Schema-shaped maps validated with ValidateInput before dispatch.
type Capability struct {
	Operation    string         `json:"operation"`
	InputSchema  map[string]any `json:"input_schema,omitempty"`
	OutputSchema map[string]any `json:"output_schema,omitempty"`
}

// AgentCard is the static record an agent publishes at startup for
// discovery.
type AgentCard struct {
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Capabilities []Capability `json:"capabilities"`
}

// Registry holds published agent cards and answers capability discovery
// queries. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	cards map[string]AgentCard
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{cards: make(map[string]AgentCard)}
}

// Register publishes an agent card. Re-registering the same name replaces
// the previous card. A card without a name is a validation error.
func (r *Registry) Register(card AgentCard) error {
	if card.Name == "" {
		return core.NewError(core.KindValidation, "a2a.register", "agent card requires a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[card.Name] = card
	return nil
}

// Discover returns the names of agents advertising the given capability
// operation, sorted for deterministic binding.
func (r *Registry) Discover(operation string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, card := range r.cards {
		for _, cap := range card.Capabilities {
			if cap.Operation == operation {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// Card returns the published card for an agent name.
func (r *Registry) Card(name string) (AgentCard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	card, ok := r.cards[name]
	return card, ok
}

// Capability returns the capability record for an operation on a named
// agent, used to validate step inputs against the advertised schema.
func (r *Registry) Capability(agent, operation string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	card, ok := r.cards[agent]
	if !ok {
		return Capability{}, false
	}
	for _, cap := range card.Capabilities {
		if cap.Operation == operation {
			return cap, true
		}
	}
	return Capability{}, false
}

// Operations lists every distinct capability operation currently
// published, sorted.
func (r *Registry) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]bool{}
	for _, card := range r.cards {
		for _, cap := range card.Capabilities {
			seen[cap.Operation] = true
		}
	}
	ops := make([]string, 0, len(seen))
	for op := range seen {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
