package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of most recent events a Log retains.
const DefaultCapacity = 100

// Log appends audit events to a Sink and keeps it bounded to the most recent
// capacity events. Safe for concurrent use.
type Log struct {
	sink     Sink
	capacity int
	timeout  time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

// Option configures Log behavior during initialization
type Option func(*Log)

// WithCapacity sets how many events are retained. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithTimeout bounds each sink call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Log) {
		if d >= 0 {
			l.timeout = d
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLog creates a bounded audit log over the sink.
func NewLog(sink Sink, opts ...Option) *Log {
	if sink == nil {
		panic("audit: sink cannot be nil")
	}

	l := &Log{
		sink:     sink,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Capacity returns the number of events retained.
func (l *Log) Capacity() int {
	return l.capacity
}

// Record appends a new event and evicts the oldest events beyond capacity.
// The stored event is returned even when trimming fails.
func (l *Log) Record(ctx context.Context, name string, opts ...EventOption) (Event, error) {
	event := Event{
		ID:        uuid.New().String(),
		CreatedAt: l.now(),
		Name:      name,
	}
	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return Event{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.call(ctx, func(ctx context.Context) error {
		return l.sink.Append(ctx, event)
	}); err != nil {
		return Event{}, err
	}

	if err := l.call(ctx, l.trim); err != nil {
		return event, err
	}
	return event, nil
}

// Events returns the retained events, oldest first.
func (l *Log) Events(ctx context.Context) ([]Event, error) {
	var events []Event
	err := l.call(ctx, func(ctx context.Context) error {
		var err error
		events, err = l.sink.ReadAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	// sinks may hold more than capacity if a previous trim failed
	if len(events) > l.capacity {
		events = events[len(events)-l.capacity:]
	}
	return events, nil
}

// Clear removes every retained event.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.call(ctx, l.sink.Clear)
}

func (l *Log) trim(ctx context.Context) error {
	if t, ok := l.sink.(Trimmer); ok {
		return t.Trim(ctx, l.capacity)
	}

	events, err := l.sink.ReadAll(ctx)
	if err != nil {
		return err
	}
	if len(events) <= l.capacity {
		return nil
	}

	if err := l.sink.Clear(ctx); err != nil {
		return err
	}
	for _, e := range events[len(events)-l.capacity:] {
		if err := l.sink.Append(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// call runs fn under the configured timeout and tags failures with ErrSinkUnavailable.
func (l *Log) call(ctx context.Context, fn func(context.Context) error) error {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		return errors.Join(ErrSinkUnavailable, err)
	}
	return nil
}
