package rollout

import "context"

// Status is a read-only view of the controller, taken from a single snapshot.
type Status struct {
	Phase                     Phase   `json:"phase"`
	RolloutPercentage         int     `json:"rollout_percentage"`
	ShouldUseNewPath          bool    `json:"should_use_new_path"`
	ShouldUseParallelTracking bool    `json:"should_use_parallel_tracking"`
	Flags                     FlagSet `json:"flags"`
	SessionID                 string  `json:"session_id"`
}

// Status returns the current state. The session identity is resolved once and
// the reported decision is bucketed on that same id.
func (c *Controller) Status(ctx context.Context) Status {
	s := c.state.Load()
	id, known := c.sessionID(ctx)
	newPath := c.inRollout(s, id, known)
	return Status{
		Phase:                     s.phase,
		RolloutPercentage:         c.percentage,
		ShouldUseNewPath:          newPath,
		ShouldUseParallelTracking: newPath && s.flags.Enabled(FlagParallelTracking),
		Flags:                     s.flags.Clone(),
		SessionID:                 id,
	}
}
