package workflow

import (
	"sync"

	"github.com/discoverymesh/discoverymesh/core"
)

// Registry stores validated workflow definitions. Definitions are
// immutable once registered; re-registering an id is an error. Safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]Definition
	byType map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]Definition),
		byType: make(map[string]Definition),
	}
}

// Register validates and stores a definition. The first definition of a
// type becomes that type's binding; registering a second definition for
// the same type or id is an error.
func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[def.ID]; exists {
		return core.NewError(core.KindValidation, "workflow.register", "definition %q already registered", def.ID)
	}
	if _, exists := r.byType[def.Type]; exists {
		return core.NewError(core.KindValidation, "workflow.register", "workflow type %q already bound", def.Type)
	}
	r.byID[def.ID] = def
	r.byType[def.Type] = def
	return nil
}

// Get returns the definition with the given id.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byID[id]
	return def, ok
}

// ByType returns the definition bound to a workflow type.
func (r *Registry) ByType(wfType string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byType[wfType]
	return def, ok
}

// Types lists the registered workflow types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	return types
}
