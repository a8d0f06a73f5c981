package rollout

// Decision kinds passed to Observer.Decision. Component decisions use the
// component name (see Components).
const (
	DecisionNewPath          = "new_path"
	DecisionParallelTracking = "parallel_tracking"
)

// Observer receives controller activity. Calls happen on the caller's
// goroutine, some of them under the mutation lock, so implementations must be
// fast and safe for concurrent use.
type Observer interface {
	PhaseChanged(phase Phase)
	FlagChanged(flag Flag, value bool)
	Decision(kind string, result bool)
	RollbackTriggered()
}

type noopObserver struct{}

func (noopObserver) PhaseChanged(Phase)     {}
func (noopObserver) FlagChanged(Flag, bool) {}
func (noopObserver) Decision(string, bool)  {}
func (noopObserver) RollbackTriggered()     {}
