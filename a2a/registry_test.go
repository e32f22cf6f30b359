package a2a

import (
	"testing"

	"github.com/discoverymesh/discoverymesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchCard(name string) AgentCard {
	return AgentCard{
		Name: name,
		Capabilities: []Capability{
			{Operation: "product.search"},
			{Operation: "product.alternatives"},
		},
	}
}

func TestRegistryDiscover(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(searchCard("search-b")))
	require.NoError(t, reg.Register(searchCard("search-a")))
	require.NoError(t, reg.Register(AgentCard{
		Name:         "explainer",
		Capabilities: []Capability{{Operation: "product.explain"}},
	}))

	assert.Equal(t, []string{"search-a", "search-b"}, reg.Discover("product.search"))
	assert.Equal(t, []string{"explainer"}, reg.Discover("product.explain"))
	assert.Empty(t, reg.Discover("product.recommend"))
}

func TestRegistryRejectsAnonymousCard(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(AgentCard{})
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}

func TestRegistryCapabilityLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(AgentCard{
		Name: "search-agent",
		Capabilities: []Capability{{
			Operation:   "product.search",
			InputSchema: map[string]any{"type": "object"},
		}},
	}))

	cap, ok := reg.Capability("search-agent", "product.search")
	require.True(t, ok)
	assert.Equal(t, "product.search", cap.Operation)

	_, ok = reg.Capability("search-agent", "product.explain")
	assert.False(t, ok)
	_, ok = reg.Capability("missing", "product.search")
	assert.False(t, ok)
}

func TestRegistryOperations(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(searchCard("s")))
	require.NoError(t, reg.Register(AgentCard{
		Name:         "e",
		Capabilities: []Capability{{Operation: "product.explain"}},
	}))

	assert.Equal(t,
		[]string{"product.alternatives", "product.explain", "product.search"},
		reg.Operations())
}

func TestValidateInput(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
			"limit": map[string]any{"type": "integer"},
		},
		"required": []string{"query"},
	}

	assert.NoError(t, ValidateInput(map[string]any{"query": "laptop", "limit": 5}, schema))

	err := ValidateInput(map[string]any{"limit": 5}, schema)
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	err = ValidateInput(map[string]any{"query": 42}, schema)
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}

func TestSchemaForStruct(t *testing.T) {
	type searchInput struct {
		Query string  `json:"query" description:"free text query"`
		Limit int     `json:"limit,omitempty"`
		Score float64 `json:"score,omitempty"`
	}

	schema := SchemaFor(searchInput{})
	props := schema["properties"].(map[string]any)

	assert.Equal(t, "string", props["query"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["limit"].(map[string]any)["type"])
	assert.Equal(t, "number", props["score"].(map[string]any)["type"])
	assert.Equal(t, []string{"query"}, schema["required"])
}

func TestEnvelopeCorrelation(t *testing.T) {
	req := NewRequest("product.search", "orchestrator", map[string]any{"q": "tv"}, core.PriorityHigh, 0)
	assert.Equal(t, core.MessageTypeRequest, req.Type)
	assert.NotEmpty(t, req.CorrelationID)
	assert.True(t, req.Deadline.IsZero(), "zero timeout leaves deadline unset")

	resp := NewResponse(req, "search-agent", nil)
	assert.Equal(t, req.CorrelationID, resp.CorrelationID)
	assert.Equal(t, req.Topic, resp.Topic)
	assert.Equal(t, "orchestrator", resp.Recipient)
	assert.Equal(t, req.Priority, resp.Priority)
}
