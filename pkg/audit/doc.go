// Package audit records rollout state changes as an append-only, capacity-bounded
// trail of events for operational diagnosis and rollback.
//
// The package separates the bounded log from its storage:
//
//   - Event – immutable record {ID, CreatedAt, Name, Phase, SessionID, Payload}
//   - Sink – pluggable persistent append/read/clear store
//   - Trimmer – optional Sink extension that drops old events natively
//   - Log – appends events and keeps the sink bounded to the most recent N events
//
// The bound is enforced by Log at append time, not by the sink. Sinks that implement
// Trimmer (Redis LTRIM, SQL DELETE) are trimmed in one call; other sinks are rewritten
// by reading all events, clearing, and re-appending the most recent ones.
//
// # Usage
//
//	log := audit.NewLog(audit.NewMemorySink(),
//		audit.WithCapacity(100),
//		audit.WithTimeout(250*time.Millisecond),
//	)
//
//	_, err := log.Record(ctx, "flag_updated",
//		audit.WithPhase("parallel"),
//		audit.WithSessionID(sessionID),
//		audit.WithPayload("flag", "parallelTracking"),
//		audit.WithPayload("value", true),
//	)
//
//	events, err := log.Events(ctx) // oldest first
//
// # Error Handling
//
//	if errors.Is(err, audit.ErrSinkUnavailable) {
//		// backend failed or timed out
//	}
//
// Storage backends live in sibling packages (pkg/redis, pkg/pg). MemorySink is
// provided for tests and single-process deployments.
package audit
