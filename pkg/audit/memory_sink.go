package audit

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemorySink is an in-memory Sink. It's useful for testing and simple applications.
type MemorySink struct {
	events []Event
	mu     sync.RWMutex
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Append(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, cloneEvent(event))
	return nil
}

func (m *MemorySink) ReadAll(_ context.Context) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, len(m.events))
	for i, e := range m.events {
		out[i] = cloneEvent(e)
	}
	return out, nil
}

func (m *MemorySink) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	return nil
}

// Trim implements Trimmer.
func (m *MemorySink) Trim(_ context.Context, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if keep < 0 {
		keep = 0
	}
	if len(m.events) > keep {
		m.events = slices.Clone(m.events[len(m.events)-keep:])
	}
	return nil
}

// Len returns the number of stored events.
func (m *MemorySink) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// cloneEvent copies the payload map so stored events stay immutable.
func cloneEvent(e Event) Event {
	if e.Payload != nil {
		e.Payload = maps.Clone(e.Payload)
	}
	return e
}
