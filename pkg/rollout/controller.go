package rollout

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/trackflag/pkg/audit"
	"github.com/dmitrymomot/trackflag/pkg/logger"
)

// Audit event names.
const (
	EventControllerInitialized = "controller_initialized"
	EventFlagUpdated           = "flag_updated"
	EventFlagReset             = "flag_reset"
	EventEmergencyRollback     = "emergency_rollback_triggered"
)

// AlertCategory is the category of alerts emitted on emergency rollback.
const AlertCategory = "migration"

// snapshot is the committed state: a FlagSet and the phase derived from it.
// It is never modified after publication.
type snapshot struct {
	flags FlagSet
	phase Phase
}

// Controller owns the canonical flag snapshot and answers rollout decisions.
// Decision queries are lock-free; mutations are serialized.
type Controller struct {
	overrides    OverrideStore
	sessions     SessionStore
	env          EnvSource
	alerter      Alerter
	observer     Observer
	audit        *audit.Log
	resolver     *Resolver
	log          *slog.Logger
	percentage   int
	defaults     map[Flag]bool
	storeTimeout time.Duration

	mu    sync.Mutex
	state atomic.Pointer[snapshot]
}

// New constructs a controller: it resolves the flag snapshot, derives the initial
// phase and, when monitoring is enabled, records an initialization audit event.
//
// overrides, sessions and sink are injected collaborators and may be nil:
// no override store, an in-memory session and an in-memory audit sink are used instead.
func New(ctx context.Context, cfg Config, overrides OverrideStore, sessions SessionStore, sink audit.Sink, opts ...Option) *Controller {
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}
	if sink == nil {
		sink = audit.NewMemorySink()
	}

	c := &Controller{
		overrides:    overrides,
		sessions:     sessions,
		observer:     noopObserver{},
		log:          slog.New(slog.DiscardHandler),
		percentage:   cfg.RolloutPercentage(),
		defaults:     NewFlagSet(cfg.Defaults),
		storeTimeout: cfg.StoreTimeout,
	}
	if c.storeTimeout <= 0 {
		c.storeTimeout = DefaultStoreTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("rollout"))

	c.audit = audit.NewLog(sink,
		audit.WithCapacity(audit.DefaultCapacity),
		audit.WithTimeout(c.storeTimeout),
	)
	c.resolver = NewResolver(overrides, c.env,
		WithResolverTimeout(c.storeTimeout),
		WithResolverLogger(c.log),
	)

	flags := c.resolver.ResolveAll(ctx, c.defaults)
	initial := &snapshot{flags: flags, phase: DerivePhase(flags)}
	c.state.Store(initial)
	c.observer.PhaseChanged(initial.phase)

	c.log.InfoContext(ctx, "rollout controller initialized",
		logger.Phase(string(initial.phase)),
		logger.Percentage(c.percentage),
	)

	if flags.Enabled(FlagMonitoringEnabled) {
		c.record(ctx, initial, EventControllerInitialized,
			audit.WithPayload("rollout_percentage", c.percentage),
			audit.WithPayload("flags", map[Flag]bool(flags.Clone())),
		)
	}

	return c
}

// Phase returns the current migration phase.
func (c *Controller) Phase() Phase {
	return c.state.Load().phase
}

// Flags returns a copy of the current flag snapshot.
func (c *Controller) Flags() FlagSet {
	return c.state.Load().flags.Clone()
}

// RolloutPercentage returns the clamped rollout percentage.
func (c *Controller) RolloutPercentage() int {
	return c.percentage
}

// ShouldUseNewPath reports whether the current session uses the new tracking path.
// It never fails; an unavailable session identity yields false unless the rollout is at 100%.
func (c *Controller) ShouldUseNewPath(ctx context.Context) bool {
	ok := c.shouldUseNewPath(ctx, c.state.Load())
	c.observer.Decision(DecisionNewPath, ok)
	return ok
}

// ShouldUseParallelTracking reports whether both tracking paths should fire.
func (c *Controller) ShouldUseParallelTracking(ctx context.Context) bool {
	s := c.state.Load()
	ok := s.flags.Enabled(FlagParallelTracking) && c.shouldUseNewPath(ctx, s)
	c.observer.Decision(DecisionParallelTracking, ok)
	return ok
}

// ShouldUseComponent reports whether a tracked component (checkout, payment, thankyou)
// uses the new path. Unknown components are false.
func (c *Controller) ShouldUseComponent(ctx context.Context, name string) bool {
	flag, known := componentFlags[name]
	if !known {
		return false
	}
	s := c.state.Load()
	ok := s.flags.Enabled(flag) && c.shouldUseNewPath(ctx, s)
	c.observer.Decision(name, ok)
	return ok
}

func (c *Controller) shouldUseNewPath(ctx context.Context, s *snapshot) bool {
	if !s.phase.UsesNewPath() || c.percentage <= 0 {
		return false
	}
	if c.percentage >= 100 {
		return true
	}
	id, ok := c.sessionID(ctx)
	return c.inRollout(s, id, ok)
}

// inRollout decides the new path for an already resolved session identity.
func (c *Controller) inRollout(s *snapshot, id string, known bool) bool {
	switch {
	case !s.phase.UsesNewPath() || c.percentage <= 0:
		return false
	case c.percentage >= 100:
		return true
	case !known:
		return false
	default:
		return InRollout(id, c.percentage)
	}
}

// UpdateFlag sets a flag at runtime: it persists the override, commits a new snapshot
// with the re-derived phase and records a flag_updated event.
// Only an unknown flag name is reported as an error.
func (c *Controller) UpdateFlag(ctx context.Context, name string, value bool) error {
	flag, err := ParseFlag(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(ctx, flag, value)
	return nil
}

// ResetFlag removes a runtime override and re-resolves the flag from the
// environment and compiled defaults.
func (c *Controller) ResetFlag(ctx context.Context, name string) error {
	flag, err := ParseFlag(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.overrides != nil {
		if err := c.withTimeout(ctx, func(ctx context.Context) error {
			return c.overrides.Remove(ctx, OverrideKey(flag))
		}); err != nil {
			c.log.WarnContext(ctx, "failed to remove flag override",
				logger.Flag(string(flag)), logger.Error(err))
		}
	}

	value := c.resolver.Resolve(ctx, flag, c.defaults[flag])
	prev, next := c.commitLocked(flag, value)
	c.log.InfoContext(ctx, "rollout flag reset",
		logger.Flag(string(flag)),
		slog.Bool("value", value),
		logger.Phase(string(next.phase)),
	)
	c.record(ctx, next, EventFlagReset,
		audit.WithPayload("flag", string(flag)),
		audit.WithPayload("value", value),
		audit.WithPayload("phase", string(next.phase)),
		audit.WithPayload("previous_phase", string(prev.phase)),
	)
	return nil
}

// EmergencyRollback forces the rollback phase: emergencyRollbackEnabled=true and
// gtmEnabled=false, followed by an emergency_rollback_triggered event and a
// best-effort alert. Repeated calls keep the controller in the rollback phase.
func (c *Controller) EmergencyRollback(ctx context.Context, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.applyLocked(ctx, FlagEmergencyRollbackEnabled, true)
	s := c.applyLocked(ctx, FlagGTMEnabled, false)

	c.log.ErrorContext(ctx, "emergency rollback triggered",
		slog.String("reason", reason),
		logger.Phase(string(s.phase)),
	)
	c.record(ctx, s, EventEmergencyRollback, audit.WithPayload("reason", reason))
	c.observer.RollbackTriggered()

	if c.alerter == nil {
		return
	}
	if err := c.withTimeout(ctx, func(ctx context.Context) error {
		return c.alerter.Alert(ctx, Alert{Category: AlertCategory, Label: reason})
	}); err != nil {
		c.log.WarnContext(ctx, "rollback alert not delivered", logger.Error(err))
	}
}

// AuditEvents returns the retained audit trail, oldest first.
func (c *Controller) AuditEvents(ctx context.Context) ([]audit.Event, error) {
	return c.audit.Events(ctx)
}

// ClearAudit drops the audit trail. Operator action only.
func (c *Controller) ClearAudit(ctx context.Context) error {
	if err := c.audit.Clear(ctx); err != nil {
		return err
	}
	c.log.InfoContext(ctx, "rollout audit trail cleared")
	return nil
}

// Close tears the controller down. Injected stores are owned by the caller and stay open.
func (c *Controller) Close() error {
	c.log.Debug("rollout controller closed", logger.Phase(string(c.Phase())))
	return nil
}

// applyLocked persists the override, commits the change and records it.
// c.mu must be held.
func (c *Controller) applyLocked(ctx context.Context, flag Flag, value bool) *snapshot {
	if c.overrides != nil {
		if err := c.withTimeout(ctx, func(ctx context.Context) error {
			return c.overrides.Set(ctx, OverrideKey(flag), formatToken(value))
		}); err != nil {
			c.log.WarnContext(ctx, "failed to persist flag override",
				logger.Flag(string(flag)), logger.Error(err))
		}
	}

	prev, next := c.commitLocked(flag, value)
	c.log.InfoContext(ctx, "rollout flag updated",
		logger.Flag(string(flag)),
		slog.Bool("value", value),
		logger.Phase(string(next.phase)),
	)
	c.record(ctx, next, EventFlagUpdated,
		audit.WithPayload("flag", string(flag)),
		audit.WithPayload("value", value),
		audit.WithPayload("phase", string(next.phase)),
		audit.WithPayload("previous_phase", string(prev.phase)),
	)
	return next
}

// commitLocked swaps in a snapshot with one flag changed and its phase re-derived.
func (c *Controller) commitLocked(flag Flag, value bool) (prev, next *snapshot) {
	prev = c.state.Load()
	flags := prev.flags.With(flag, value)
	next = &snapshot{flags: flags, phase: DerivePhase(flags)}
	c.state.Store(next)

	c.observer.FlagChanged(flag, value)
	if next.phase != prev.phase {
		c.observer.PhaseChanged(next.phase)
	}
	return prev, next
}

// record appends an audit event against the given snapshot. Failures are logged only.
func (c *Controller) record(ctx context.Context, s *snapshot, name string, opts ...audit.EventOption) {
	id, _ := c.sessionID(ctx)
	opts = append(opts, audit.WithPhase(string(s.phase)), audit.WithSessionID(id))
	if _, err := c.audit.Record(ctx, name, opts...); err != nil {
		c.log.WarnContext(ctx, "failed to record audit event",
			logger.Event(name), logger.Error(err))
	}
}

// sessionID asks the session store for the caller's identity within the store timeout.
func (c *Controller) sessionID(ctx context.Context) (string, bool) {
	var id string
	err := c.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		id, err = c.sessions.GetOrCreate(ctx)
		return err
	})
	if err != nil {
		c.log.DebugContext(ctx, "session identity unavailable", logger.Error(err))
		return "", false
	}
	return id, id != ""
}

func (c *Controller) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	return fn(ctx)
}
