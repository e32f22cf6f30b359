package bus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/discoverymesh/discoverymesh/a2a"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(ctx context.Context, msg core.Message) (map[string]any, error) {
	return map[string]any{"echo": msg.Payload["q"]}, nil
}

func TestRequestResponseRoundTrip(t *testing.T) {
	b := New()
	defer b.Close()

	require.NoError(t, b.Subscribe("product.search", "search-agent", echoHandler))

	payload, err := b.Request(context.Background(), "product.search",
		map[string]any{"q": "laptop"}, WithTimeout(time.Second))

	require.NoError(t, err)
	assert.Equal(t, "laptop", payload["echo"])
}

func TestRequestNoSubscriber(t *testing.T) {
	b := New()
	defer b.Close()

	_, err := b.Request(context.Background(), "missing.topic", nil)
	require.Error(t, err)
	assert.Equal(t, core.KindUpstreamFailure, core.KindOf(err))
}

func TestRequestTimeoutIsTypedNotHang(t *testing.T) {
	b := New()
	defer b.Close()

	block := make(chan struct{})
	defer close(block)
	require.NoError(t, b.Subscribe("slow.topic", "sloth", func(ctx context.Context, msg core.Message) (map[string]any, error) {
		<-block
		return nil, nil
	}))

	start := time.Now()
	_, err := b.Request(context.Background(), "slow.topic", nil, WithTimeout(50*time.Millisecond))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, core.KindUpstreamTimeout, core.KindOf(err))
	assert.Less(t, elapsed, time.Second, "timeout must resolve promptly, not hang")
}

func TestPriorityOrdering(t *testing.T) {
	b := New()
	defer b.Close()

	var mu sync.Mutex
	var order []core.Priority
	release := make(chan struct{})
	started := make(chan struct{})
	var startOnce sync.Once

	require.NoError(t, b.Subscribe("work", "worker", func(ctx context.Context, msg core.Message) (map[string]any, error) {
		startOnce.Do(func() {
			close(started)
			<-release
		})
		mu.Lock()
		order = append(order, msg.Priority)
		mu.Unlock()
		return nil, nil
	}))

	// Occupy the consumer with a first message, then queue LOW, CRITICAL,
	// NORMAL behind it.
	require.NoError(t, b.Publish(a2a.NewBroadcast("work", "test", nil, core.PriorityNormal)))
	<-started

	require.NoError(t, b.Publish(a2a.NewBroadcast("work", "test", nil, core.PriorityLow)))
	require.NoError(t, b.Publish(a2a.NewBroadcast("work", "test", nil, core.PriorityCritical)))
	require.NoError(t, b.Publish(a2a.NewBroadcast("work", "test", nil, core.PriorityNormal)))
	close(release)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 4
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []core.Priority{
		core.PriorityNormal, // the occupying message
		core.PriorityCritical,
		core.PriorityNormal,
		core.PriorityLow,
	}, order)
}

func TestCorrelationIntegrityUnderConcurrency(t *testing.T) {
	b := New()
	defer b.Close()

	// Handler answers with the question it was asked, after a jittered
	// delay so responses come back out of order.
	require.NoError(t, b.Subscribe("qa", "answerer", func(ctx context.Context, msg core.Message) (map[string]any, error) {
		n := msg.Payload["n"].(int)
		time.Sleep(time.Duration(n%7) * time.Millisecond)
		return map[string]any{"n": n}, nil
	}))

	const inflight = 40
	var wg sync.WaitGroup
	for i := 0; i < inflight; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payload, err := b.Request(context.Background(), "qa",
				map[string]any{"n": n}, WithTimeout(5*time.Second))
			require.NoError(t, err)
			assert.Equal(t, n, payload["n"], "response delivered to the wrong waiter")
		}(i)
	}
	wg.Wait()
}

func TestPublishFanOut(t *testing.T) {
	b := New()
	defer b.Close()

	var mu sync.Mutex
	got := map[string]int{}
	handler := func(name string) Handler {
		return func(ctx context.Context, msg core.Message) (map[string]any, error) {
			mu.Lock()
			got[name]++
			mu.Unlock()
			return nil, nil
		}
	}
	require.NoError(t, b.Subscribe("catalog.updated", "a", handler("a")))
	require.NoError(t, b.Subscribe("catalog.updated", "b", handler("b")))

	require.NoError(t, b.Publish(a2a.NewEvent("catalog.updated", "catalog", nil)))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got["a"] == 1 && got["b"] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRequestAttachesCompressedContext(t *testing.T) {
	b := New(func(o *Options) { o.ContextBudget = 512 })
	defer b.Close()

	var seen map[string]any
	require.NoError(t, b.Subscribe("product.search", "search-agent", func(ctx context.Context, msg core.Message) (map[string]any, error) {
		seen = msg.Payload
		return nil, nil
	}))

	history := []session.Turn{
		{UserText: "show me laptops", Summary: "3 found"},
		{UserText: "cheaper ones"},
	}
	_, err := b.Request(context.Background(), "product.search",
		map[string]any{"q": "cheaper"}, WithHistory(history), WithTimeout(time.Second))
	require.NoError(t, err)

	require.Contains(t, seen, "context")
	ctxPayload := seen["context"].(map[string]any)
	turns := ctxPayload["turns"].([]any)
	assert.Len(t, turns, 2)
}

func TestRequestDoesNotMutateCallerPayload(t *testing.T) {
	b := New()
	defer b.Close()

	require.NoError(t, b.Subscribe("t", "s", echoHandler))

	payload := map[string]any{"q": "tv"}
	_, err := b.Request(context.Background(), "t", payload,
		WithHistory([]session.Turn{{UserText: "hello"}}), WithTimeout(time.Second))
	require.NoError(t, err)
	assert.NotContains(t, payload, "context")
}

func TestRequestContextCancellation(t *testing.T) {
	b := New()
	defer b.Close()

	block := make(chan struct{})
	defer close(block)
	require.NoError(t, b.Subscribe("slow", "sloth", func(ctx context.Context, msg core.Message) (map[string]any, error) {
		<-block
		return nil, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := b.Request(ctx, "slow", nil, WithTimeout(10*time.Second))
	require.Error(t, err)
	assert.Equal(t, core.KindUpstreamFailure, core.KindOf(err))
}

func TestHandlerErrorPropagatesKind(t *testing.T) {
	b := New()
	defer b.Close()

	require.NoError(t, b.Subscribe("strict", "validator", func(ctx context.Context, msg core.Message) (map[string]any, error) {
		return nil, core.NewError(core.KindValidation, "filter.compile", "unknown operator %q", "gt")
	}))

	_, err := b.Request(context.Background(), "strict", nil, WithTimeout(time.Second))
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	require.NoError(t, b.Subscribe("untyped", "legacy", func(ctx context.Context, msg core.Message) (map[string]any, error) {
		return nil, fmt.Errorf("plain failure")
	}))
	_, err = b.Request(context.Background(), "untyped", nil, WithTimeout(time.Second))
	require.Error(t, err)
	assert.Equal(t, core.KindUpstreamFailure, core.KindOf(err))
}
