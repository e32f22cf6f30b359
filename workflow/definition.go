package workflow

import (
	"strings"
	"time"

	"github.com/discoverymesh/discoverymesh/core"
)

// RetryPolicy bounds step attempts. Backoff is the initial delay between
// attempts; the executor doubles it per retry.
type RetryPolicy struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff" json:"backoff"`
}

// Step binds one workflow node to an agent capability.
type Step struct {
	Name       string      `yaml:"name" json:"name"`
	Capability string      `yaml:"capability" json:"capability"`
	// Input maps payload fields to values. String values prefixed
	// "request." resolve from the original request payload and
	// "steps.<name>." from a prior step's output; anything else is a
	// literal.
	Input     map[string]any `yaml:"input,omitempty" json:"input,omitempty"`
	Retry     RetryPolicy    `yaml:"retry" json:"retry"`
	DependsOn []string       `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Required  bool           `yaml:"required" json:"required"`
	// Timeout bounds each attempt. Zero falls back to the executor
	// default.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Definition is a declarative workflow: an ordered set of steps selected
// by Type. Definitions are immutable once registered.
type Definition struct {
	ID    string `yaml:"id" json:"id"`
	Type  string `yaml:"type" json:"type"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Validate checks structural soundness: unique step names, known
// dependencies and an acyclic dependency graph.
func (d Definition) Validate() error {
	const op = "workflow.validate"
	if d.ID == "" {
		return core.NewError(core.KindValidation, op, "definition requires an id")
	}
	if d.Type == "" {
		return core.NewError(core.KindValidation, op, "definition %q requires a type", d.ID)
	}
	if len(d.Steps) == 0 {
		return core.NewError(core.KindValidation, op, "definition %q has no steps", d.ID)
	}

	byName := make(map[string]Step, len(d.Steps))
	for _, s := range d.Steps {
		if s.Name == "" {
			return core.NewError(core.KindValidation, op, "definition %q: step requires a name", d.ID)
		}
		if s.Capability == "" {
			return core.NewError(core.KindValidation, op, "definition %q: step %q requires a capability", d.ID, s.Name)
		}
		if _, dup := byName[s.Name]; dup {
			return core.NewError(core.KindValidation, op, "definition %q: duplicate step %q", d.ID, s.Name)
		}
		byName[s.Name] = s
	}
	for _, s := range d.Steps {
		for _, dep := range s.DependsOn {
			if _, ok := byName[dep]; !ok {
				return core.NewError(core.KindValidation, op,
					"definition %q: step %q depends on unknown step %q", d.ID, s.Name, dep)
			}
		}
	}
	if cycle := findCycle(byName); cycle != "" {
		return core.NewError(core.KindValidation, op, "definition %q: dependency cycle through %q", d.ID, cycle)
	}
	return nil
}

// Capabilities lists the distinct capabilities the definition dispatches
// to, used at startup to verify every binding is discoverable.
func (d Definition) Capabilities() []string {
	seen := map[string]bool{}
	var caps []string
	for _, s := range d.Steps {
		if !seen[s.Capability] {
			seen[s.Capability] = true
			caps = append(caps, s.Capability)
		}
	}
	return caps
}

// findCycle returns the name of a step on a dependency cycle, or "".
func findCycle(steps map[string]Step) string {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(steps))

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = grey
		for _, dep := range steps[name].DependsOn {
			switch color[dep] {
			case grey:
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		color[name] = black
		return false
	}

	for name := range steps {
		if color[name] == white && visit(name) {
			return name
		}
	}
	return ""
}

// ResolveInput materializes a step's input mapping against the original
// request payload and prior step outputs.
func ResolveInput(input map[string]any, request map[string]any, outputs map[string]map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	resolved := make(map[string]any, len(input))
	for field, raw := range input {
		ref, ok := raw.(string)
		if !ok {
			resolved[field] = raw
			continue
		}
		switch {
		case strings.HasPrefix(ref, "request."):
			resolved[field] = request[strings.TrimPrefix(ref, "request.")]
		case strings.HasPrefix(ref, "steps."):
			rest := strings.TrimPrefix(ref, "steps.")
			parts := strings.SplitN(rest, ".", 2)
			if len(parts) == 2 {
				if out, ok := outputs[parts[0]]; ok {
					resolved[field] = out[parts[1]]
					continue
				}
			}
			resolved[field] = nil
		default:
			resolved[field] = ref
		}
	}
	return resolved
}
