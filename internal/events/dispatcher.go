package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher allows event publication and subscription. Publishing is
// best-effort: it never blocks the caller and a handler failure never
// propagates back to the publishing transition.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// Options tune the async dispatcher.
type Options struct {
	QueueSize      int
	MaxAttempts    int
	AttemptTimeout time.Duration
	RetryBackoff   time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 5 * time.Second
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 250 * time.Millisecond
	}
	return o
}

// AsyncDispatcher queues events onto a bounded channel drained by a
// worker goroutine. Handlers run with a per-attempt timeout and are
// retried with doubling backoff; exhausted retries are logged and
// dropped, matching the fire-and-forget contract.
type AsyncDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	queue     chan Event
	opts      Options
	logger    *zap.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// NewAsyncDispatcher creates and starts a dispatcher.
func NewAsyncDispatcher(opts Options, logger *zap.Logger) *AsyncDispatcher {
	opts = opts.withDefaults()
	d := &AsyncDispatcher{
		listeners: make(map[EventType][]EventHandler),
		queue:     make(chan Event, opts.QueueSize),
		opts:      opts,
		logger:    logger,
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues without waiting. A full queue drops the event with a
// log line rather than stalling the request path.
func (d *AsyncDispatcher) Publish(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event queue full, dropping event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Close stops the worker after draining queued events.
func (d *AsyncDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *AsyncDispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.mu.RLock()
		handlers := append([]EventHandler{}, d.listeners[event.Type]...)
		d.mu.RUnlock()

		for _, handler := range handlers {
			d.deliver(event, handler)
		}
	}
}

func (d *AsyncDispatcher) deliver(event Event, handler EventHandler) {
	backoff := d.opts.RetryBackoff
	var err error
	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.opts.AttemptTimeout)
		err = handler(ctx, event)
		cancel()
		if err == nil {
			return
		}
		if attempt < d.opts.MaxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	d.logger.Error("event delivery failed after retries",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Int("attempts", d.opts.MaxAttempts),
		zap.Error(err))
}
