package rollout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/trackflag/pkg/logger"
)

const (
	tokenTrue  = "true"
	tokenFalse = "false"
)

// DefaultStoreTimeout bounds every call to an override, session or audit backend.
const DefaultStoreTimeout = 250 * time.Millisecond

// Resolver resolves flag values with the precedence
// override store > environment default > compiled default.
type Resolver struct {
	overrides OverrideStore
	env       EnvSource
	timeout   time.Duration
	log       *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

func WithResolverTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver creates a resolver. Both sources are optional.
func NewResolver(overrides OverrideStore, env EnvSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		overrides: overrides,
		env:       env,
		timeout:   DefaultStoreTimeout,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the effective value of a flag. It never fails: unavailable or
// malformed sources fall through to the next precedence level.
func (r *Resolver) Resolve(ctx context.Context, flag Flag, def bool) bool {
	if v, ok := r.fromOverride(ctx, flag); ok {
		return v
	}
	if v, ok := r.fromEnv(flag); ok {
		return v
	}
	return def
}

// ResolveAll resolves every flag of the closed set. Flags missing from defaults
// use the compiled-in defaults.
func (r *Resolver) ResolveAll(ctx context.Context, defaults map[Flag]bool) FlagSet {
	base := NewFlagSet(defaults)
	fs := make(FlagSet, len(base))
	for _, f := range allFlags {
		fs[f] = r.Resolve(ctx, f, base[f])
	}
	return fs
}

func (r *Resolver) fromOverride(ctx context.Context, flag Flag) (bool, bool) {
	if r.overrides == nil {
		return false, false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, ok, err := r.overrides.Get(ctx, OverrideKey(flag))
	if err != nil {
		r.log.WarnContext(ctx, "override lookup failed, falling through",
			logger.Flag(string(flag)),
			logger.Error(errors.Join(ErrSourceUnavailable, err)),
		)
		return false, false
	}
	if !ok {
		return false, false
	}
	return parseToken(raw)
}

func (r *Resolver) fromEnv(flag Flag) (bool, bool) {
	if r.env == nil {
		return false, false
	}
	raw, ok := r.env.Lookup(flag)
	if !ok {
		return false, false
	}
	return parseToken(raw)
}

// parseToken only recognizes the "true" token. Any other value, "false"
// included, falls through to the next precedence level.
func parseToken(raw string) (value, ok bool) {
	if raw == tokenTrue {
		return true, true
	}
	return false, false
}

func formatToken(v bool) string {
	if v {
		return tokenTrue
	}
	return tokenFalse
}
