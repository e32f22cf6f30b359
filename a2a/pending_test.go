package a2a

import (
	"sync"
	"testing"
	"time"

	"github.com/discoverymesh/discoverymesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingTableFulfill(t *testing.T) {
	table := NewPendingTable()
	req := NewRequest("product.search", "orchestrator", nil, core.PriorityNormal, time.Second)

	ch := table.Register(req.CorrelationID, req.Deadline)
	resp := NewResponse(req, "search-agent", map[string]any{"ok": true})

	require.True(t, table.Fulfill(resp))

	out := <-ch
	require.NoError(t, out.Err)
	assert.Equal(t, req.CorrelationID, out.Response.CorrelationID)
	assert.Equal(t, true, out.Response.Payload["ok"])
	assert.Equal(t, 0, table.Len())
}

func TestPendingTableTimeoutIsTyped(t *testing.T) {
	table := NewPendingTable()
	deadline := time.Now().Add(30 * time.Millisecond)

	ch := table.Register("corr-1", deadline)

	select {
	case out := <-ch:
		require.Error(t, out.Err)
		assert.Equal(t, core.KindUpstreamTimeout, core.KindOf(out.Err))
	case <-time.After(time.Second):
		t.Fatal("slot never resolved")
	}

	// Late response after timeout is dropped.
	assert.False(t, table.Fulfill(core.Message{Type: core.MessageTypeResponse, CorrelationID: "corr-1"}))
}

func TestPendingTableIgnoresNonResponses(t *testing.T) {
	table := NewPendingTable()
	table.Register("corr-2", time.Time{})

	ev := NewEvent("product.updated", "catalog", nil)
	ev.CorrelationID = "corr-2"
	assert.False(t, table.Fulfill(ev), "event correlation ids are never consumed for matching")
	assert.Equal(t, 1, table.Len())
}

func TestPendingTableCancel(t *testing.T) {
	table := NewPendingTable()
	ch := table.Register("corr-3", time.Time{})

	cause := core.NewError(core.KindStepFailure, "workflow.cancel", "execution cancelled")
	require.True(t, table.Cancel("corr-3", cause))

	out := <-ch
	assert.Equal(t, core.KindStepFailure, core.KindOf(out.Err))
}

func TestPendingTableConcurrentCorrelationIntegrity(t *testing.T) {
	table := NewPendingTable()
	const n = 50

	type pair struct {
		req core.Message
		ch  <-chan Outcome
	}
	pairs := make([]pair, n)
	for i := range pairs {
		req := NewRequest("product.search", "orchestrator", nil, core.PriorityNormal, time.Second)
		pairs[i] = pair{req: req, ch: table.Register(req.CorrelationID, req.Deadline)}
	}

	// Fulfill in reverse order from concurrent goroutines to force
	// reordering.
	var wg sync.WaitGroup
	for i := n - 1; i >= 0; i-- {
		wg.Add(1)
		go func(req core.Message) {
			defer wg.Done()
			table.Fulfill(NewResponse(req, "agent", map[string]any{"corr": req.CorrelationID}))
		}(pairs[i].req)
	}
	wg.Wait()

	for _, p := range pairs {
		out := <-p.ch
		require.NoError(t, out.Err)
		assert.Equal(t, p.req.CorrelationID, out.Response.CorrelationID,
			"waiter must only ever see its own correlation id")
	}
}
