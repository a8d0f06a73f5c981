package rollout

import (
	"log/slog"
	"time"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithAlerter registers the external alerting collaborator notified on emergency rollback.
func WithAlerter(a Alerter) Option {
	return func(c *Controller) {
		c.alerter = a
	}
}

// WithEnvSource sets the source of environment-level flag defaults.
func WithEnvSource(env EnvSource) Option {
	return func(c *Controller) {
		c.env = env
	}
}

// WithStoreTimeout bounds each override, session and audit backend call.
// It takes precedence over Config.StoreTimeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.storeTimeout = d
		}
	}
}

// WithObserver reports controller activity to o, typically a metrics collector.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}
