package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records an audit event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Flag records a rollout flag name under the key "flag".
func Flag(name string) slog.Attr {
	return slog.String("flag", name)
}

// Phase records a migration phase under the key "phase".
func Phase(phase string) slog.Attr {
	return slog.String("phase", phase)
}

// Percentage records the rollout percentage under the key "rollout_percentage".
func Percentage(p int) slog.Attr {
	return slog.Int("rollout_percentage", p)
}

// SessionID records the session identity under the key "session_id".
// Empty ids produce an empty Attr.
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

// Backend records the storage backend name under the key "backend".
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}
