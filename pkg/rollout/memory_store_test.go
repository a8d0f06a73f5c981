package rollout_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

func TestMemoryOverrideStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	initial := map[string]string{"override_gtmEnabled": "true"}
	store := rollout.NewMemoryOverrideStore(initial)
	initial["override_gtmEnabled"] = "false"

	v, ok, err := store.Get(ctx, "override_gtmEnabled")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	require.NoError(t, store.Set(ctx, "override_debugMode", "false"))
	require.NoError(t, store.Remove(ctx, "override_gtmEnabled"))

	_, ok, err = store.Get(ctx, "override_gtmEnabled")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, map[string]string{"override_debugMode": "false"}, store.Snapshot())
}

func TestMemorySessionStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("lazily creates a stable identity", func(t *testing.T) {
		t.Parallel()
		store := rollout.NewMemorySessionStore()

		ids := make([]string, 20)
		var wg sync.WaitGroup
		for i := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ids[i], _ = store.GetOrCreate(ctx)
			}()
		}
		wg.Wait()

		require.NotEmpty(t, ids[0])
		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
	})

	t.Run("seeded identity", func(t *testing.T) {
		t.Parallel()
		id, err := rollout.NewMemorySessionStore("fixed").GetOrCreate(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fixed", id)
	})
}

func TestContextSessionStore(t *testing.T) {
	t.Parallel()
	store := rollout.ContextSessionStore{}

	_, err := store.GetOrCreate(context.Background())
	assert.ErrorIs(t, err, rollout.ErrNoSession)

	_, err = store.GetOrCreate(rollout.WithSessionID(context.Background(), ""))
	assert.ErrorIs(t, err, rollout.ErrNoSession)

	id, err := store.GetOrCreate(rollout.WithSessionID(context.Background(), "s-9"))
	require.NoError(t, err)
	assert.Equal(t, "s-9", id)
}
