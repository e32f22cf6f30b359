package agent_test

import (
	"context"
	"testing"

	"github.com/discoverymesh/discoverymesh/agent"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var workflowTypes = []string{"search", "search_recommend", "alternatives"}

func classify(t *testing.T, m model.Model, text string) map[string]any {
	t.Helper()
	b, _ := mountAgents(t, agent.NewClassifierAgent(m, workflowTypes))
	out, err := b.Request(context.Background(), agent.CapabilityClassify, map[string]any{"text": text})
	require.NoError(t, err)
	return out
}

func TestClassifierToolCall(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.AddToolCall("find me a cheap laptop", "classify_intent", map[string]any{"workflow_type": "search"})

	out := classify(t, m, "find me a cheap laptop")
	assert.Equal(t, "search", out["workflow_type"])
	assert.Equal(t, "tool_call", out["method"])
}

func TestClassifierTextFallback(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.AddResponse("laptops plus accessories please", "This looks like a search_recommend request.")

	out := classify(t, m, "laptops plus accessories please")
	assert.Equal(t, "search_recommend", out["workflow_type"])
	assert.Equal(t, "text", out["method"])
}

func TestClassifierKeywordFallback(t *testing.T) {
	m := model.NewMockModel("mock", "mock")

	out := classify(t, m, "what could I buy instead of this chair")
	assert.Equal(t, "alternatives", out["workflow_type"])
	assert.Equal(t, "keyword", out["method"])
}

func TestClassifierModelFailureFallsBackToKeywords(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.FailWith(core.NewError(core.KindRateLimited, "model.mock", "slow down"))

	out := classify(t, m, "show me office chairs")
	assert.Equal(t, "search", out["workflow_type"], "default type when no keyword matches")
	assert.Equal(t, "keyword", out["method"])
}

func TestClassifierIgnoresUnknownToolCallType(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.AddToolCall("hello", "classify_intent", map[string]any{"workflow_type": "bogus"})

	out := classify(t, m, "hello")
	assert.Equal(t, "search", out["workflow_type"], "unknown type falls through to default")
}
