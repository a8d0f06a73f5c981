package pg_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trackflag/pkg/audit"
	"github.com/dmitrymomot/trackflag/pkg/pg"
	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsNotFoundError(fmt.Errorf("wrapped: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(nil))
	assert.False(t, pg.IsNotFoundError(errors.New("other")))

	assert.True(t, pg.IsUndefinedTableError(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, pg.IsUndefinedTableError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, pg.IsUndefinedTableError(nil))
}

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()
	_, err := pg.Connect(context.Background(), pg.Config{ConnectionString: "postgres://%zz"})
	require.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}

func TestMigrate_MissingDir(t *testing.T) {
	t.Parallel()
	err := pg.Migrate(context.Background(), nil, pg.Config{MigrationsPath: "testdata/does-not-exist"}, slog.New(slog.DiscardHandler))
	require.ErrorIs(t, err, pg.ErrMigrationsDirNotFound)
}

// testPool connects to the database named by PG_TEST_URL and applies migrations.
// Tests that need it are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("PG_TEST_URL")
	if url == "" {
		t.Skip("PG_TEST_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString:  url,
		MaxOpenConns:      4,
		MaxIdleConns:      1,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   time.Minute,
		MaxConnLifetime:   time.Minute,
		RetryAttempts:     1,
		MigrationsTable:   "rollout_schema_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, cfg, slog.New(slog.DiscardHandler)))
	require.NoError(t, pg.Healthcheck(pool)(ctx))

	_, err = pool.Exec(ctx, "TRUNCATE rollout_overrides, rollout_audit_events")
	require.NoError(t, err)
	return pool
}

// The integration tests share one database, so they run sequentially.
func TestPostgresBackend(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	t.Run("override store", func(t *testing.T) {
		store := pg.NewOverrideStore(pool)

		_, ok, err := store.Get(ctx, "override_gtmEnabled")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.Set(ctx, "override_gtmEnabled", "true"))
		require.NoError(t, store.Set(ctx, "override_gtmEnabled", "false"))
		val, ok, err := store.Get(ctx, "override_gtmEnabled")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "false", val)

		require.NoError(t, store.Remove(ctx, "override_gtmEnabled"))
		_, ok, err = store.Get(ctx, "override_gtmEnabled")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("audit sink trims to capacity", func(t *testing.T) {
		log := audit.NewLog(pg.NewAuditSink(pool), audit.WithCapacity(10))
		for i := range 15 {
			_, err := log.Record(ctx, fmt.Sprintf("event-%d", i), audit.WithPayload("i", i))
			require.NoError(t, err)
		}

		events, err := log.Events(ctx)
		require.NoError(t, err)
		require.Len(t, events, 10)
		assert.Equal(t, "event-5", events[0].Name)
		assert.Equal(t, "event-14", events[9].Name)
		assert.EqualValues(t, 14, events[9].Payload["i"])

		require.NoError(t, log.Clear(ctx))
		events, err = log.Events(ctx)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("controller survives restart", func(t *testing.T) {
		first := rollout.New(ctx, rollout.Config{}, pg.NewOverrideStore(pool), nil, pg.NewAuditSink(pool))
		require.NoError(t, first.UpdateFlag(ctx, "gtmEnabled", true))
		require.NoError(t, first.UpdateFlag(ctx, "parallelTracking", true))

		second := rollout.New(ctx, rollout.Config{}, pg.NewOverrideStore(pool), nil, pg.NewAuditSink(pool))
		assert.Equal(t, rollout.PhaseParallel, second.Phase())
	})
}
