package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

var _ rollout.OverrideStore = (*OverrideStore)(nil)

const overridesKey = "overrides"

// OverrideStore keeps rollout overrides in a single Redis hash so all
// controller replicas see the same values.
type OverrideStore struct {
	db  redis.UniversalClient
	key string
}

// NewOverrideStore stores overrides under the hash "<prefix>overrides".
func NewOverrideStore(client redis.UniversalClient, prefix string) *OverrideStore {
	return &OverrideStore{db: client, key: prefix + overridesKey}
}

// Get returns ok=false for missing fields; redis.Nil is not an error here.
func (s *OverrideStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.db.HGet(ctx, s.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *OverrideStore) Set(ctx context.Context, key, value string) error {
	return s.db.HSet(ctx, s.key, key, value).Err()
}

func (s *OverrideStore) Remove(ctx context.Context, key string) error {
	return s.db.HDel(ctx, s.key, key).Err()
}

// All returns every stored override.
func (s *OverrideStore) All(ctx context.Context) (map[string]string, error) {
	return s.db.HGetAll(ctx, s.key).Result()
}
