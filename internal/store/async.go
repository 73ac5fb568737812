package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBuffer  = 256
	defaultAsyncTimeout = 10 * time.Second
	defaultDrainTimeout = 15 * time.Second
)

type AsyncOptions struct {
	Buffer       int           // queued events before new ones are dropped
	Timeout      time.Duration // deadline for each delivery
	DrainTimeout time.Duration // how long Close waits for the queue to empty
	Logger       *slog.Logger
}

type queuedEvent struct {
	ctx   context.Context
	event Event
}

// AsyncObserver delivers events to a wrapped observer from its own
// goroutine, so a slow sink never holds up a commit. Events reach the
// wrapped observer in commit order. When the queue is full the event is
// dropped and logged.
type AsyncObserver struct {
	name         string
	next         Observer
	timeout      time.Duration
	drainTimeout time.Duration
	logger       *slog.Logger

	mu      sync.RWMutex
	closed  bool
	queue   chan queuedEvent
	done    chan struct{}
	dropped atomic.Int64
}

// NewAsyncObserver starts the delivery goroutine. Close stops it.
func NewAsyncObserver(name string, next Observer, opts AsyncOptions) *AsyncObserver {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultAsyncBuffer
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultAsyncTimeout
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	a := &AsyncObserver{
		name:         name,
		next:         next,
		timeout:      opts.Timeout,
		drainTimeout: opts.DrainTimeout,
		logger:       opts.Logger.With("sink", name),
		queue:        make(chan queuedEvent, opts.Buffer),
		done:         make(chan struct{}),
	}
	go a.run()
	return a
}

// Observe is a store.Observer. It never blocks.
func (a *AsyncObserver) Observe(ctx context.Context, e Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.drop(ctx, e, "sink closed")
		return
	}
	select {
	case a.queue <- queuedEvent{ctx: ctx, event: e}:
	default:
		a.drop(ctx, e, "queue full")
	}
}

func (a *AsyncObserver) drop(ctx context.Context, e Event, reason string) {
	n := a.dropped.Add(1)
	a.logger.WarnContext(ctx, "Dropped event for slow sink",
		"kind", e.Kind,
		"reason", reason,
		"dropped_total", n)
}

// Dropped returns how many events were never handed to the wrapped observer.
func (a *AsyncObserver) Dropped() int64 {
	return a.dropped.Load()
}

func (a *AsyncObserver) run() {
	defer close(a.done)
	for q := range a.queue {
		// The request that caused the commit may already be finished.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(q.ctx), a.timeout)
		a.next(ctx, q.event)
		cancel()
	}
}

// Close stops accepting events and waits for the queued ones to be
// delivered, up to the drain timeout.
func (a *AsyncObserver) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-time.After(a.drainTimeout):
		return fmt.Errorf("sink %s: %d events still queued after %s", a.name, len(a.queue), a.drainTimeout)
	}
}
