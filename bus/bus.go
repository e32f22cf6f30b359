package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/discoverymesh/discoverymesh/a2a"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/discoverymesh/discoverymesh/session"
)

// Handler consumes a message delivered to a subscription. For REQUEST
// messages the returned payload becomes the RESPONSE; for EVENT and
// BROADCAST the return values are ignored apart from error logging.
type Handler func(ctx context.Context, msg core.Message) (map[string]any, error)

// Options configures a Bus.
type Options struct {
	// Logger receives bus diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger

	// ContextBudget bounds the serialized CompressedContext attached to
	// requests carrying history. Defaults to session.DefaultContextBudget.
	ContextBudget int

	// DefaultTimeout applies to requests that do not set one explicitly.
	DefaultTimeout time.Duration
}

// Bus is the in-process message bus. Construct once at startup and pass by
// reference; there is no package-level instance.
type Bus struct {
	opts    Options
	pending *a2a.PendingTable

	mu     sync.RWMutex
	subs   map[string][]*subscription
	closed bool
	wg     sync.WaitGroup
}

// subscription owns one consumer goroutine and its priority queue.
type subscription struct {
	topic      string
	subscriber string
	handler    Handler

	mu     sync.Mutex
	cond   *sync.Cond
	queue  priorityQueue
	closed bool
}

// New creates a Bus with the supplied option overrides.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{
		Logger:         logging.NoOpLogger{},
		ContextBudget:  session.DefaultContextBudget,
		DefaultTimeout: 10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Bus{
		opts:    opts,
		pending: a2a.NewPendingTable(),
		subs:    make(map[string][]*subscription),
	}
}

// Subscribe registers a handler invoked for every future publish on the
// topic. The first subscriber of a topic is its designated request
// handler; later subscribers still receive events and broadcasts.
func (b *Bus) Subscribe(topic, subscriber string, handler Handler) error {
	if topic == "" || handler == nil {
		return core.NewError(core.KindValidation, "bus.subscribe", "topic and handler are required")
	}

	s := &subscription{topic: topic, subscriber: subscriber, handler: handler}
	s.cond = sync.NewCond(&s.mu)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return core.NewError(core.KindUpstreamFailure, "bus.subscribe", "bus is closed")
	}
	b.subs[topic] = append(b.subs[topic], s)
	b.wg.Add(1)
	b.mu.Unlock()

	go b.consume(s)
	return nil
}

// Publish delivers a message to all current subscribers of its topic.
// EVENT/BROADCAST semantics: best-effort, no response expected, no
// ordering guarantee across subscribers. RESPONSE messages instead fulfill
// the pending slot matching their correlation id.
func (b *Bus) Publish(msg core.Message) error {
	if msg.Type == core.MessageTypeResponse {
		if !b.pending.Fulfill(msg) {
			b.opts.Logger.Debug("dropping unmatched response", "correlation_id", msg.CorrelationID)
		}
		return nil
	}

	b.mu.RLock()
	subs := append([]*subscription(nil), b.subs[msg.Topic]...)
	closed := b.closed
	b.mu.RUnlock()

	if closed {
		return core.NewError(core.KindUpstreamFailure, "bus.publish", "bus is closed")
	}
	for _, s := range subs {
		s.enqueue(msg)
	}
	return nil
}

// RequestOption customizes a single Request call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	sender   string
	priority core.Priority
	timeout  time.Duration
	history  []session.Turn
}

// WithSender labels the request with the caller's agent name.
func WithSender(sender string) RequestOption {
	return func(o *requestOptions) { o.sender = sender }
}

// WithPriority sets the delivery priority (default NORMAL).
func WithPriority(p core.Priority) RequestOption {
	return func(o *requestOptions) { o.priority = p }
}

// WithTimeout overrides the bus default per-request timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) { o.timeout = d }
}

// WithHistory attaches conversational history; the bus compresses it to
// the configured byte budget before dispatch.
func WithHistory(turns []session.Turn) RequestOption {
	return func(o *requestOptions) { o.history = turns }
}

// Request performs REQUEST/RESPONSE over the topic's designated handler.
// The caller suspends until a matching RESPONSE arrives, the per-request
// timeout elapses (typed UpstreamTimeout), or ctx is cancelled. Responses
// are matched solely by correlation id, so concurrent in-flight requests
// on the same topic never cross-deliver.
func (b *Bus) Request(ctx context.Context, topic string, payload map[string]any, optFns ...RequestOption) (map[string]any, error) {
	opts := requestOptions{
		sender:   "bus",
		priority: core.PriorityNormal,
		timeout:  b.opts.DefaultTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	target := b.designated(topic)
	if target == nil {
		return nil, core.NewError(core.KindUpstreamFailure, "bus.request", "no handler subscribed to topic %q", topic)
	}

	req := a2a.NewRequest(topic, opts.sender, clonePayload(payload), opts.priority, opts.timeout)
	if len(opts.history) > 0 {
		compressed := session.Compress(opts.history, b.opts.ContextBudget)
		if req.Payload == nil {
			req.Payload = map[string]any{}
		}
		req.Payload["context"] = compressed.Payload()
	}

	ch := b.pending.Register(req.CorrelationID, req.Deadline)
	target.enqueue(req)

	select {
	case out := <-ch:
		if out.Err != nil {
			return nil, out.Err
		}
		return out.Response.Payload, nil
	case <-ctx.Done():
		err := ctxError(ctx.Err())
		if b.pending.Cancel(req.CorrelationID, err) {
			return nil, err
		}
		// Lost the race: the slot resolved concurrently, take the outcome.
		out := <-ch
		if out.Err != nil {
			return nil, out.Err
		}
		return out.Response.Payload, nil
	}
}

// Respond fulfills the pending request identified by correlationID with a
// RESPONSE payload. It reports whether a waiter was still registered.
func (b *Bus) Respond(correlationID, sender string, payload map[string]any) bool {
	return b.pending.Fulfill(core.Message{
		ID:            core.NewID(),
		Type:          core.MessageTypeResponse,
		CorrelationID: correlationID,
		Sender:        sender,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	})
}

// Close stops all consumers and waits for their queues to drain. Further
// publishes fail.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var all []*subscription
	for _, subs := range b.subs {
		all = append(all, subs...)
	}
	b.mu.Unlock()

	for _, s := range all {
		s.close()
	}
	b.wg.Wait()
}

// designated returns the topic's request handler: the first subscriber.
func (b *Bus) designated(topic string) *subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.subs[topic]
	if len(subs) == 0 {
		return nil
	}
	return subs[0]
}

// consume drains one subscription's queue in priority order.
func (b *Bus) consume(s *subscription) {
	defer b.wg.Done()
	for {
		msg, ok := s.next()
		if !ok {
			return
		}
		b.dispatch(s, msg)
	}
}

// dispatch invokes the handler and, for requests, resolves the pending
// slot with either the response payload or the handler's typed error.
func (b *Bus) dispatch(s *subscription, msg core.Message) {
	switch msg.Type {
	case core.MessageTypeRequest:
		if msg.Expired(time.Now()) {
			// The pending table timer already resolved the waiter.
			b.opts.Logger.Debug("dropping expired request",
				"topic", msg.Topic, "correlation_id", msg.CorrelationID)
			return
		}

		ctx := context.Background()
		var cancel context.CancelFunc
		if !msg.Deadline.IsZero() {
			ctx, cancel = context.WithDeadline(ctx, msg.Deadline)
		}
		payload, err := s.handler(ctx, msg)
		if cancel != nil {
			cancel()
		}

		if err != nil {
			if core.KindOf(err) == core.KindUnknown {
				err = core.WrapError(core.KindUpstreamFailure, "bus.dispatch", err)
			}
			b.pending.Cancel(msg.CorrelationID, err)
			return
		}
		b.pending.Fulfill(a2a.NewResponse(msg, s.subscriber, payload))

	default:
		if _, err := s.handler(context.Background(), msg); err != nil {
			b.opts.Logger.Warn("event handler failed",
				"topic", msg.Topic, "subscriber", s.subscriber, "error", err)
		}
	}
}

func (s *subscription) enqueue(msg core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue.add(msg)
	s.cond.Signal()
}

// next blocks until a message is available or the subscription closes.
// On close it keeps draining whatever is already queued.
func (s *subscription) next() (core.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.queue.Len() == 0 && !s.closed {
		s.cond.Wait()
	}
	return s.queue.next()
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func clonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	clone := make(map[string]any, len(payload))
	for k, v := range payload {
		clone[k] = v
	}
	return clone
}

func ctxError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.KindUpstreamTimeout, "bus.request", err)
	}
	return core.WrapError(core.KindUpstreamFailure, "bus.request", err)
}
