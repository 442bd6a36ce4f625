package gate

import "attentiond/internal/schedule"

// #region config

// Config holds gating policy knobs.
type Config struct {
	// RequireGoalBeforeFreeAccess controls the break policy: when true,
	// categories outside the active block unlock once the session's
	// engagement goal is met; when false, they stay locked for the
	// whole block.
	RequireGoalBeforeFreeAccess bool
}

// DefaultConfig returns the soft-lock default: goal completion earns a
// break.
func DefaultConfig() Config {
	return Config{RequireGoalBeforeFreeAccess: true}
}

// #endregion config

// #region decision

// Decision is the outcome of one access check. Derived on every query,
// never stored. When access is denied the reason always names the
// active block so the caller can explain the lock.
type Decision struct {
	RequestedCategory string
	Allowed           bool
	Reason            string
	ActiveBlock       *schedule.Block // nil when no block is active
	NextBlock         *schedule.Block // set when unrestricted, if one is upcoming
	AllowedCategories []string
}

// #endregion decision
