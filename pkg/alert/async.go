package alert

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/trackflag/pkg/logger"
	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

// ErrQueueFull is returned when an async alerter cannot accept more alerts.
var ErrQueueFull = errors.New("alert queue is full")

// ErrClosed is returned for alerts submitted after Close.
var ErrClosed = errors.New("alerter is closed")

// AsyncOptions tunes the background delivery of an Async alerter.
type AsyncOptions struct {
	BufferSize      int           // queued alerts before Alert returns ErrQueueFull
	DeliveryTimeout time.Duration // bound for one delivery including retries
	Logger          *slog.Logger  // receives delivery failures
}

// Async decouples alert delivery from the caller. The controller holds its
// mutation lock while alerting, so slow endpoints must not run inline.
type Async struct {
	next    rollout.Alerter
	queue   chan rollout.Alert
	timeout time.Duration
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsync starts a worker that forwards alerts to next. The returned function
// stops accepting alerts and waits for the queue to drain or ctx to end.
func NewAsync(next rollout.Alerter, opts AsyncOptions) (*Async, func(context.Context) error) {
	if next == nil {
		panic("alert: async target cannot be nil")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 16
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	a := &Async{
		next:    next,
		queue:   make(chan rollout.Alert, opts.BufferSize),
		timeout: opts.DeliveryTimeout,
		log:     opts.Logger.With(logger.Component("alert")),
	}
	a.wg.Add(1)
	go a.worker()

	return a, a.Close
}

// Alert enqueues al without waiting for delivery.
func (a *Async) Alert(_ context.Context, al rollout.Alert) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- al:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops intake and waits for queued alerts to be delivered.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) worker() {
	defer a.wg.Done()
	for al := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Alert(ctx, al); err != nil {
			a.log.ErrorContext(ctx, "alert delivery failed",
				slog.String("eventLabel", al.Label), logger.Error(err))
		}
		cancel()
	}
}
