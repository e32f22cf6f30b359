package workflow

import (
	"io"
	"os"
	"time"

	"github.com/discoverymesh/discoverymesh/core"
	"gopkg.in/yaml.v3"
)

// LoadDefinition decodes and validates a single YAML workflow definition.
func LoadDefinition(r io.Reader) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return Definition{}, core.WrapError(core.KindValidation, "workflow.load", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadFile reads one workflow definition from a YAML file.
func LoadFile(path string) (Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definition{}, core.WrapError(core.KindValidation, "workflow.load", err)
	}
	defer f.Close()
	return LoadDefinition(f)
}

// UnmarshalYAML decodes a step, accepting Go duration strings ("100ms",
// "2s") for the timeout.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name       string         `yaml:"name"`
		Capability string         `yaml:"capability"`
		Input      map[string]any `yaml:"input"`
		Retry      RetryPolicy    `yaml:"retry"`
		DependsOn  []string       `yaml:"depends_on"`
		Required   bool           `yaml:"required"`
		Timeout    string         `yaml:"timeout"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	timeout, err := parseDuration(raw.Timeout)
	if err != nil {
		return core.NewError(core.KindValidation, "workflow.load",
			"step %q: invalid timeout %q", raw.Name, raw.Timeout)
	}
	*s = Step{
		Name:       raw.Name,
		Capability: raw.Capability,
		Input:      raw.Input,
		Retry:      raw.Retry,
		DependsOn:  raw.DependsOn,
		Required:   raw.Required,
		Timeout:    timeout,
	}
	return nil
}

// UnmarshalYAML decodes a retry policy, accepting Go duration strings for
// the backoff.
func (r *RetryPolicy) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		MaxAttempts int    `yaml:"max_attempts"`
		Backoff     string `yaml:"backoff"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	backoff, err := parseDuration(raw.Backoff)
	if err != nil {
		return core.NewError(core.KindValidation, "workflow.load",
			"invalid backoff %q", raw.Backoff)
	}
	*r = RetryPolicy{MaxAttempts: raw.MaxAttempts, Backoff: backoff}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
