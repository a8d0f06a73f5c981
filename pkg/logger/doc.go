// Package logger builds the *slog.Logger used across the rollout services.
//
// New returns a JSON or text logger configured by Option functions; environment
// presets (WithEnvironment) pick the format and level, and ContextExtractor callbacks
// inject request-scoped values such as the rollout session id into every record.
//
// Attribute helpers (Flag, Phase, SessionID, Error, ...) keep key names consistent:
//
//	log := logger.New(
//		logger.WithEnvironment("production", "rolloutd"),
//		logger.WithContextExtractors(sessionExtractor),
//	)
//	log.InfoContext(ctx, "rollout flag updated",
//		logger.Flag("parallelTracking"),
//		logger.Phase("parallel"),
//	)
//
// Error returns an empty attribute for a nil error, so callers can pass errors
// without a nil check.
package logger
