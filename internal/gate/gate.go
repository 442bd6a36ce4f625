package gate

import (
	"errors"
	"fmt"
	"time"

	"attentiond/internal/schedule"
	"attentiond/internal/session"
)

// #region completion-checker

// CompletionChecker is the slice of the session manager the gate
// consults. The gate never re-derives completion itself.
type CompletionChecker interface {
	Completion() (session.Completion, error)
}

// #endregion completion-checker

// #region gate

// Gate converts (active block, requested category) into an allow/deny
// decision. Read-only over schedule and session state.
type Gate struct {
	schedule *schedule.Store
	sessions CompletionChecker
	config   Config
}

// New creates a gate. sessions may be nil when no session manager is
// wired (the goal-based break policy then never unlocks early).
func New(sched *schedule.Store, sessions CompletionChecker, config Config) *Gate {
	return &Gate{schedule: sched, sessions: sessions, config: config}
}

// #endregion gate

// #region check-access

// CheckAccess decides whether the requested content category may be
// surfaced at the given time.
func (g *Gate) CheckAccess(category string, now time.Time) Decision {
	active, ok := g.schedule.ActiveBlock(now)
	if !ok {
		d := Decision{
			RequestedCategory: category,
			Allowed:           true,
			Reason:            "unrestricted: no scheduled block is active",
			AllowedCategories: g.schedule.Categories(),
		}
		if next, ok := g.schedule.NextBlock(now); ok {
			d.NextBlock = &next
		}
		return d
	}

	if category == active.Category {
		return Decision{
			RequestedCategory: category,
			Allowed:           true,
			Reason:            fmt.Sprintf("matches active block %q", active.Name),
			ActiveBlock:       &active,
			AllowedCategories: []string{active.Category},
		}
	}

	// Break policy: goal completion can unlock outside categories.
	if g.config.RequireGoalBeforeFreeAccess && g.sessions != nil {
		comp, err := g.sessions.Completion()
		switch {
		case err == nil && comp.IsComplete:
			return Decision{
				RequestedCategory: category,
				Allowed:           true,
				Reason:            fmt.Sprintf("engagement goal met for block %q; break access granted", active.Name),
				ActiveBlock:       &active,
				AllowedCategories: g.schedule.Categories(),
			}
		case err != nil && !errors.Is(err, session.ErrSessionNotFound):
			// Unexpected checker failure degrades to the lock.
		}
	}

	return Decision{
		RequestedCategory: category,
		Allowed:           false,
		Reason: fmt.Sprintf("locked to active block %q (category %q)",
			active.Name, active.Category),
		ActiveBlock:       &active,
		AllowedCategories: []string{active.Category},
	}
}

// #endregion check-access
