package rollout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

type MockOverrideStore struct {
	mock.Mock
}

func (m *MockOverrideStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockOverrideStore) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockOverrideStore) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// blockingOverrideStore never answers before the context expires.
type blockingOverrideStore struct{}

func (blockingOverrideStore) Get(ctx context.Context, _ string) (string, bool, error) {
	<-ctx.Done()
	return "", false, ctx.Err()
}
func (blockingOverrideStore) Set(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}
func (blockingOverrideStore) Remove(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestResolver_Precedence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	flag := rollout.FlagGTMEnabled

	tests := []struct {
		name     string
		override map[string]string
		env      rollout.MapEnv
		def      bool
		want     bool
	}{
		{name: "compiled default only", def: true, want: true},
		{name: "env beats default", env: rollout.MapEnv{flag: "true"}, def: false, want: true},
		{name: "env false falls through to default", env: rollout.MapEnv{flag: "false"}, def: true, want: true},
		{
			name:     "override false falls through to env",
			override: map[string]string{"override_gtmEnabled": "false"},
			env:      rollout.MapEnv{flag: "true"},
			def:      false,
			want:     true,
		},
		{
			name:     "override false falls through to default",
			override: map[string]string{"override_gtmEnabled": "false"},
			def:      true,
			want:     true,
		},
		{
			name:     "override true beats env",
			override: map[string]string{"override_gtmEnabled": "true"},
			env:      rollout.MapEnv{flag: "false"},
			def:      false,
			want:     true,
		},
		{
			name:     "override true",
			override: map[string]string{"override_gtmEnabled": "true"},
			def:      false,
			want:     true,
		},
		{
			name:     "malformed override falls through to env",
			override: map[string]string{"override_gtmEnabled": "TRUE"},
			env:      rollout.MapEnv{flag: "true"},
			def:      false,
			want:     true,
		},
		{
			name:     "malformed everything falls through to default",
			override: map[string]string{"override_gtmEnabled": "1"},
			env:      rollout.MapEnv{flag: "yes"},
			def:      true,
			want:     true,
		},
		{
			name:     "other flag override ignored",
			override: map[string]string{"override_parallelTracking": "true"},
			def:      false,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var env rollout.EnvSource
			if tt.env != nil {
				env = tt.env
			}
			r := rollout.NewResolver(rollout.NewMemoryOverrideStore(tt.override), env)
			assert.Equal(t, tt.want, r.Resolve(ctx, flag, tt.def))
		})
	}
}

func TestResolver_UnavailableSources(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("store error falls through", func(t *testing.T) {
		t.Parallel()
		store := &MockOverrideStore{}
		store.On("Get", mock.Anything, "override_gtmEnabled").Return("", false, errors.New("connection refused"))

		r := rollout.NewResolver(store, rollout.MapEnv{rollout.FlagGTMEnabled: "true"})
		assert.True(t, r.Resolve(ctx, rollout.FlagGTMEnabled, false))
		store.AssertExpectations(t)
	})

	t.Run("store timeout falls through", func(t *testing.T) {
		t.Parallel()
		r := rollout.NewResolver(blockingOverrideStore{}, nil,
			rollout.WithResolverTimeout(5*time.Millisecond))

		start := time.Now()
		assert.True(t, r.Resolve(ctx, rollout.FlagGTMEnabled, true))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("nil sources use default", func(t *testing.T) {
		t.Parallel()
		r := rollout.NewResolver(nil, nil)
		assert.True(t, r.Resolve(ctx, rollout.FlagGTMEnabled, true))
		assert.False(t, r.Resolve(ctx, rollout.FlagGTMEnabled, false))
	})
}

func TestResolver_ResolveAll(t *testing.T) {
	t.Parallel()
	store := rollout.NewMemoryOverrideStore(map[string]string{
		"override_parallelTracking": "true",
	})
	r := rollout.NewResolver(store, rollout.MapEnv{rollout.FlagGTMEnabled: "true"})

	fs := r.ResolveAll(context.Background(), map[rollout.Flag]bool{rollout.FlagCheckoutTracking: true})
	assert.Len(t, fs, len(rollout.AllFlags()))
	assert.True(t, fs[rollout.FlagGTMEnabled])
	assert.True(t, fs[rollout.FlagParallelTracking])
	assert.True(t, fs[rollout.FlagCheckoutTracking])
	assert.True(t, fs[rollout.FlagMonitoringEnabled])
	assert.False(t, fs[rollout.FlagPaymentTracking])
}
