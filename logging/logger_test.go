package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug")

	logger.Info("workflow started", "workflow_id", "wf-1", "steps", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "workflow started", entry["message"])
	assert.Equal(t, "wf-1", entry["workflow_id"])
	assert.Equal(t, float64(3), entry["steps"])
}

func TestZerologAdapterLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	assert.Contains(t, buf.String(), "kept")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "nonsense")

	logger.Debug("hidden")
	logger.Info("visible")

	assert.Contains(t, buf.String(), "visible")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNoOpLoggerSilent(t *testing.T) {
	var l Logger = NoOpLogger{}
	l.Debug("a")
	l.Info("b")
	l.Warn("c")
	l.Error("d")
}
