// Package rollout controls the phased migration from the legacy tracking path to the
// tag-manager tracking path without a central flag service.
//
// The controller resolves a closed set of boolean flags, derives a single migration
// phase from them, buckets sessions into a percentage rollout with a stable hash and
// records every flag change in a bounded audit trail.
//
// # Flag precedence
//
// Each flag is resolved once at construction, highest precedence first:
//
//  1. runtime override stored under "override_<flag>" in the OverrideStore
//  2. environment default (EnvSource, ROLLOUT_<UPPER_SNAKE> by convention)
//  3. compiled-in default from Config.Defaults or DefaultFlags
//
// A level is a hit only when its value is exactly "true". Any other value ("false"
// included), missing keys and backend failures fall through to the next level.
//
// # Phases
//
// DerivePhase evaluates in strict priority order:
//
//	emergencyRollbackEnabled           -> rollback
//	!gtmEnabled                        -> legacy
//	parallelTracking                   -> parallel
//	checkout && payment && thankyou    -> full_new
//	otherwise                          -> partial_new
//
// # Usage
//
//	ctrl := rollout.New(ctx, rollout.Config{Percentage: 25},
//		overrides, rollout.ContextSessionStore{}, auditSink,
//		rollout.WithLogger(log),
//		rollout.WithAlerter(alerter),
//	)
//	defer ctrl.Close()
//
//	if ctrl.ShouldUseComponent(ctx, "checkout") {
//		// emit tag-manager checkout events
//	}
//
//	if err := ctrl.UpdateFlag(ctx, "parallelTracking", true); rollout.IsUnknownFlagError(err) {
//		// rejected, nothing changed
//	}
//
//	ctrl.EmergencyRollback(ctx, "checkout conversion dropped")
//
// # Concurrency
//
// Decision queries read an immutable snapshot through an atomic pointer and never block
// on each other. UpdateFlag, ResetFlag and EmergencyRollback are serialized; each commits
// the new FlagSet and its phase together and appends the audit event before the next
// mutation starts.
package rollout
