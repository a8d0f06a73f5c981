package pg

import (
	"context"

	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

var _ rollout.OverrideStore = (*OverrideStore)(nil)

// OverrideStore persists rollout overrides in the rollout_overrides table.
type OverrideStore struct {
	db Querier
}

func NewOverrideStore(db Querier) *OverrideStore {
	return &OverrideStore{db: db}
}

const (
	getOverrideQuery    = `SELECT value FROM rollout_overrides WHERE key = $1`
	upsertOverrideQuery = `INSERT INTO rollout_overrides (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	deleteOverrideQuery = `DELETE FROM rollout_overrides WHERE key = $1`
)

// Get returns ok=false when no row exists for key.
func (s *OverrideStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, getOverrideQuery, key).Scan(&value)
	if IsNotFoundError(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *OverrideStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx, upsertOverrideQuery, key, value)
	return err
}

func (s *OverrideStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, deleteOverrideQuery, key)
	return err
}
