package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultContextBudget bounds the serialized CompressedContext. Chosen
// conservatively; override per bus via configuration.
const DefaultContextBudget = 4096

// Turn is one prior exchange: the user's request text and a short digest
// of the aggregated output returned for it.
type Turn struct {
	UserText string    `json:"user_text"`
	Summary  string    `json:"summary,omitempty"`
	At       time.Time `json:"at,omitempty"`
}

// CompressedContext is a rolling, size-bounded view of prior turns.
// Invariant: the serialized size never exceeds the byte budget it was
// compressed with; the oldest turns are folded into Summary first.
type CompressedContext struct {
	Summary string `json:"summary,omitempty"`
	Turns   []Turn `json:"turns,omitempty"`
	Dropped int    `json:"dropped,omitempty"`
}

// Size reports the serialized byte size of the context.
func (c CompressedContext) Size() int {
	b, err := json.Marshal(c)
	if err != nil {
		return 0
	}
	return len(b)
}

// Payload converts the context to the generic map shape carried in message
// payloads.
func (c CompressedContext) Payload() map[string]any {
	m := map[string]any{}
	if c.Summary != "" {
		m["summary"] = c.Summary
	}
	if c.Dropped > 0 {
		m["dropped"] = c.Dropped
	}
	if len(c.Turns) > 0 {
		turns := make([]any, 0, len(c.Turns))
		for _, t := range c.Turns {
			turn := map[string]any{"user_text": t.UserText}
			if t.Summary != "" {
				turn["summary"] = t.Summary
			}
			turns = append(turns, turn)
		}
		m["turns"] = turns
	}
	return m
}

// Compress builds a CompressedContext from history, newest turns last,
// evicting the oldest turns into the one-line rolling summary until the
// serialized size fits budget. A budget <= 0 uses DefaultContextBudget.
// If the summary alone exceeds the budget it is truncated, so the size
// invariant holds even for pathological inputs.
func Compress(history []Turn, budget int) CompressedContext {
	if budget <= 0 {
		budget = DefaultContextBudget
	}

	ctx := CompressedContext{Turns: append([]Turn(nil), history...)}
	for ctx.Size() > budget && len(ctx.Turns) > 0 {
		oldest := ctx.Turns[0]
		ctx.Turns = ctx.Turns[1:]
		ctx.Summary = foldSummary(ctx.Summary, oldest)
		ctx.Dropped++
	}

	// Degenerate case: no turns left and the rolling summary still blows
	// the budget.
	for ctx.Size() > budget && len(ctx.Summary) > 0 {
		cut := len(ctx.Summary) / 2
		ctx.Summary = ctx.Summary[:cut]
	}
	return ctx
}

// foldSummary appends a one-line digest of the evicted turn to the rolling
// summary.
func foldSummary(summary string, t Turn) string {
	line := t.UserText
	if t.Summary != "" {
		line = fmt.Sprintf("%s -> %s", t.UserText, t.Summary)
	}
	if summary == "" {
		return line
	}
	return strings.Join([]string{summary, line}, "; ")
}
