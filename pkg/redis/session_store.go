package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

var _ rollout.SessionStore = (*SessionStore)(nil)

// SessionStore hands out one session identity per scope, shared by every
// process that uses the same scope. The id is minted once with SETNX and
// kept for ttl; reads refresh the expiry.
type SessionStore struct {
	db  redis.UniversalClient
	key string
	ttl time.Duration
}

// NewSessionStore keys the identity as "<prefix>session:<scope>". A zero ttl never expires.
func NewSessionStore(client redis.UniversalClient, prefix, scope string, ttl time.Duration) *SessionStore {
	return &SessionStore{db: client, key: prefix + "session:" + scope, ttl: ttl}
}

// GetOrCreate prefers a session id carried in ctx and falls back to the scoped id.
func (s *SessionStore) GetOrCreate(ctx context.Context) (string, error) {
	if id, ok := rollout.SessionIDFromContext(ctx); ok {
		return id, nil
	}

	if _, err := s.db.SetNX(ctx, s.key, uuid.NewString(), s.ttl).Result(); err != nil {
		return "", err
	}

	var (
		id  string
		err error
	)
	if s.ttl > 0 {
		id, err = s.db.GetEx(ctx, s.key, s.ttl).Result()
	} else {
		id, err = s.db.Get(ctx, s.key).Result()
	}
	if errors.Is(err, redis.Nil) {
		return "", rollout.ErrNoSession
	}
	return id, err
}
