package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/discoverymesh/discoverymesh/core"
)

// Message is one turn of provider-agnostic conversation input.
type Message struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"` // JSON object of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string           `json:"instructions"` // System instructions for the model
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final completion produced by a provider. Text and
// ToolCalls may both be set when the provider interleaves them.
type Response struct {
	Text         string     `json:"text"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        TokenUsage `json:"usage"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface agents use to drive generation. Failures
// carry a core.ErrorKind so callers can distinguish rate limiting and
// timeouts (retryable) from malformed output (not retryable).
type Model interface {
	Complete(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]Response
	err       error
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]Response),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, text string) {
	m.responses[prompt] = Response{Text: text, FinishReason: "stop"}
}

// AddToolCall registers a canned tool call completion for an input prompt.
func (m *MockModel) AddToolCall(prompt, name string, args map[string]any) {
	raw, _ := json.Marshal(args)
	m.responses[prompt] = Response{
		ToolCalls:    []ToolCall{{ID: core.NewID(), Name: name, Arguments: raw}},
		FinishReason: "tool_calls",
	}
}

// FailWith makes every subsequent Complete call return err.
func (m *MockModel) FailWith(err error) { m.err = err }

// Complete implements Model. The last message's text selects the canned
// response; unknown prompts echo back a deterministic fallback.
func (m *MockModel) Complete(ctx context.Context, req Request) (Response, error) {
	if m.err != nil {
		return Response{}, m.err
	}
	if err := ctx.Err(); err != nil {
		return Response{}, core.WrapError(core.KindUpstreamTimeout, "model.mock", err)
	}
	if len(req.Messages) == 0 {
		return Response{}, core.NewError(core.KindValidation, "model.mock", "no messages provided")
	}
	prompt := req.Messages[len(req.Messages)-1].Text
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return Response{
		Text:         fmt.Sprintf("Mock response to: %s", prompt),
		FinishReason: "stop",
	}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
