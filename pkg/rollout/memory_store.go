package rollout

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// MemoryOverrideStore is an in-process OverrideStore.
// It's useful for testing and single-process deployments.
type MemoryOverrideStore struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewMemoryOverrideStore creates a store pre-populated with initial values.
func NewMemoryOverrideStore(initial map[string]string) *MemoryOverrideStore {
	values := make(map[string]string, len(initial))
	maps.Copy(values, initial)
	return &MemoryOverrideStore{values: values}
}

func (m *MemoryOverrideStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryOverrideStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryOverrideStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Snapshot returns a copy of all stored overrides.
func (m *MemoryOverrideStore) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}

// MemorySessionStore holds a single session identity for the lifetime of the store,
// created on first use.
type MemorySessionStore struct {
	once sync.Once
	id   string
}

// NewMemorySessionStore creates a store with no identity yet. An optional id seeds it.
func NewMemorySessionStore(id ...string) *MemorySessionStore {
	s := &MemorySessionStore{}
	if len(id) > 0 && id[0] != "" {
		s.id = id[0]
		s.once.Do(func() {})
	}
	return s
}

func (s *MemorySessionStore) GetOrCreate(context.Context) (string, error) {
	s.once.Do(func() {
		s.id = uuid.New().String()
	})
	return s.id, nil
}

type sessionIDKey struct{}

// WithSessionID stores a session identity in the context for ContextSessionStore.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext retrieves the session identity set by WithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionIDKey{}).(string)
	return id, ok && id != ""
}

// ContextSessionStore reads the session identity from the request context.
// Identities are created upstream (e.g. by HTTP middleware), so a missing one
// is reported as ErrNoSession.
type ContextSessionStore struct{}

func (ContextSessionStore) GetOrCreate(ctx context.Context) (string, error) {
	if id, ok := SessionIDFromContext(ctx); ok {
		return id, nil
	}
	return "", ErrNoSession
}
