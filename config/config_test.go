package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	// An explicitly named missing file is an error; no path means defaults.
	require.Error(t, err)

	cfg, err = New("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "mock", cfg.Model.Provider)
	assert.Equal(t, "products", cfg.Retrieval.Collection)
	assert.Equal(t, 4096, cfg.Session.ContextBudget)
	assert.Equal(t, 10*time.Second, cfg.Workflow.StepTimeout)
	assert.Equal(t, "memory", cfg.Interaction.Backend)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discoverymesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 0.0.0.0
  port: 9090
log:
  level: debug
model:
  provider: anthropic
  name: claude-3-5-sonnet-20241022
workflow:
  step_timeout: 2s
interaction:
  backend: jsonl
  path: /tmp/interactions.jsonl
`), 0o644))

	cfg, err := New(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, 2*time.Second, cfg.Workflow.StepTimeout)
	assert.Equal(t, "jsonl", cfg.Interaction.Backend)
	assert.Equal(t, 0.7, cfg.Model.Temperature, "unset fields keep defaults")
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *AppConfig)
	}{
		{"bad log level", func(c *AppConfig) { c.Log.Level = "loud" }},
		{"bad port", func(c *AppConfig) { c.Server.Port = 0 }},
		{"bad provider", func(c *AppConfig) { c.Model.Provider = "llamacpp" }},
		{"bad budget", func(c *AppConfig) { c.Session.ContextBudget = 0 }},
		{"jsonl without path", func(c *AppConfig) { c.Interaction.Backend = "jsonl"; c.Interaction.Path = "" }},
		{"bad backend", func(c *AppConfig) { c.Interaction.Backend = "kafka" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.validate())
		})
	}
}
