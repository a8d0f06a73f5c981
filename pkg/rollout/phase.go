package rollout

// Phase is the single operating mode of the tracking migration, derived from a FlagSet.
type Phase string

const (
	PhaseRollback   Phase = "rollback"
	PhaseLegacy     Phase = "legacy"
	PhaseParallel   Phase = "parallel"
	PhasePartialNew Phase = "partial_new"
	PhaseFullNew    Phase = "full_new"
)

// Phases lists every phase in priority order.
func Phases() []Phase {
	return []Phase{PhaseRollback, PhaseLegacy, PhaseParallel, PhasePartialNew, PhaseFullNew}
}

func (p Phase) String() string {
	return string(p)
}

// UsesNewPath reports whether the phase allows the new tracking path at all.
func (p Phase) UsesNewPath() bool {
	return p != PhaseRollback && p != PhaseLegacy
}

// DerivePhase maps a FlagSet to its phase. First match wins:
// rollback, legacy, parallel, full_new, then partial_new.
func DerivePhase(fs FlagSet) Phase {
	switch {
	case fs.Enabled(FlagEmergencyRollbackEnabled):
		return PhaseRollback
	case !fs.Enabled(FlagGTMEnabled):
		return PhaseLegacy
	case fs.Enabled(FlagParallelTracking):
		return PhaseParallel
	case fs.Enabled(FlagCheckoutTracking) &&
		fs.Enabled(FlagPaymentTracking) &&
		fs.Enabled(FlagThankyouTracking):
		return PhaseFullNew
	default:
		return PhasePartialNew
	}
}
