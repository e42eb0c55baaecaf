package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"
)

var ErrClosed = errors.New("outbox: bus closed")

const (
	componentOutbox       = "outbox"
	defaultQueueSize      = 1024
	defaultConcurrency    = 8
	defaultHandlerTimeout = 30 * time.Second
)

// Bus is an in-memory event bus fanning each event out to its subscribers.
// It is not durable: events still queued when the process dies are lost.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]domoutbox.Handler

	// closeMu guards closed and the close of queue.
	closeMu sync.RWMutex
	closed  bool

	queue     chan domoutbox.Event
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc

	concurrency    int
	handlerTimeout time.Duration
	log            observability.Logger
	events         observability.Counter // bus_events_total{event,stage}
}

type Option func(*Bus)

// WithQueueSize bounds the number of events waiting for dispatch.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan domoutbox.Event, n)
		}
	}
}

// WithConcurrency caps how many handlers of one event run at once.
func WithConcurrency(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.handlerTimeout = d
		}
	}
}

func NewBus(tel observability.Observability, opts ...Option) *Bus {
	if tel == nil {
		tel = observability.Nop()
	}
	b := &Bus{
		subs:           make(map[string][]domoutbox.Handler),
		queue:          make(chan domoutbox.Event, defaultQueueSize),
		done:           make(chan struct{}),
		concurrency:    defaultConcurrency,
		handlerTimeout: defaultHandlerTimeout,
		log:            tel.Logger().With(observability.F("component", componentOutbox)),
		events:         tel.Metrics().Counter(observability.MBusEvents),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.cancel = cancel
		go b.dispatchLoop(bg)
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop refuses new events and drains the queue until ctx expires. Undelivered events are dropped.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		b.closeMu.Lock()
		b.closed = true
		close(b.queue)
		b.closeMu.Unlock()

		logger := logctx.FromOr(ctx, b.log)
		if b.cancel == nil {
			logger.Info("event_bus_stopped", observability.F("dropped", len(b.queue)))
			return
		}
		select {
		case <-b.done:
			logger.Info("event_bus_stopped")
		case <-ctx.Done():
			b.cancel()
			logger.Warn("event_bus_stopped", observability.F("dropped", len(b.queue)), observability.Err(ctx.Err()))
		}
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))
	if b.closed {
		logger.Warn("event_enqueue_rejected", observability.Err(ErrClosed))
		return ErrClosed
	}
	select {
	case b.queue <- e:
		b.events.Add(1, observability.L("event", e.EventName()), observability.L("stage", "enqueued"))
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		b.events.Add(1, observability.L("event", e.EventName()), observability.L("stage", "aborted"))
		logger.Warn("event_enqueue_aborted", observability.Err(ctx.Err()))
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-b.queue:
			if !ok {
				return
			}
			b.fanout(ctx, e)
		}
	}
}

func (b *Bus) fanout(ctx context.Context, e domoutbox.Event) {
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	logger := b.log.With(observability.F("event", name))
	if len(handlers) == 0 {
		b.events.Add(1, observability.L("event", name), observability.L("stage", "unrouted"))
		logger.Debug("event_dropped_no_subscriber")
		return
	}

	ctx = logctx.With(context.WithoutCancel(ctx), logger)
	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					b.events.Add(1, observability.L("event", name), observability.L("stage", "panicked"))
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, b.handlerTimeout)
			defer cancel()
			if err := h(hctx, e); err != nil {
				b.events.Add(1, observability.L("event", name), observability.L("stage", "failed"))
				logger.Warn("event_handler_error", observability.Err(err))
				return
			}
			b.events.Add(1, observability.L("event", name), observability.L("stage", "handled"))
		}()
	}

	wg.Wait()
	logger.Debug("event_fanned_out", observability.F("handlers", len(handlers)))
}
