package rollout

import "context"

// OverrideStore is a key-value source of runtime flag overrides.
// Every read must tolerate absence: Get returns ok=false for missing keys.
type OverrideStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// SessionStore yields the identity of the caller's session, creating it lazily.
// The controller never mints identities itself.
type SessionStore interface {
	GetOrCreate(ctx context.Context) (string, error)
}

// EnvSource provides environment-level flag defaults.
type EnvSource interface {
	Lookup(flag Flag) (string, bool)
}

// Alert is the structured notification emitted on emergency rollback.
type Alert struct {
	Category string `json:"eventCategory"`
	Label    string `json:"eventLabel"`
}

// Alerter is an optional external alerting collaborator.
type Alerter interface {
	Alert(ctx context.Context, alert Alert) error
}
