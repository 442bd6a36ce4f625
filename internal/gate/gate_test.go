package gate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"attentiond/internal/schedule"
	"attentiond/internal/session"
)

// stubChecker returns a fixed completion result.
type stubChecker struct {
	comp session.Completion
	err  error
}

func (s stubChecker) Completion() (session.Completion, error) { return s.comp, s.err }

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
}

func scienceSchedule(t *testing.T) *schedule.Store {
	t.Helper()
	s, err := schedule.NewStore([]schedule.Block{
		{Name: "Science Hour", StartTime: "09:00", EndTime: "10:00", Category: "science", Threshold: 0.7},
		{Name: "Free Play", StartTime: "15:00", EndTime: "16:00", Category: "games", Threshold: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestMatchingCategoryAllowed(t *testing.T) {
	g := New(scienceSchedule(t), nil, DefaultConfig())

	d := g.CheckAccess("science", at(9, 30))
	if !d.Allowed {
		t.Fatalf("science during Science Hour must be allowed: %+v", d)
	}
	if d.ActiveBlock == nil || d.ActiveBlock.Name != "Science Hour" {
		t.Fatal("decision should carry the active block")
	}
}

func TestMismatchedCategoryDeniedNamesBlock(t *testing.T) {
	g := New(scienceSchedule(t), stubChecker{}, DefaultConfig())

	d := g.CheckAccess("games", at(9, 30))
	if d.Allowed {
		t.Fatalf("games during Science Hour must be denied: %+v", d)
	}
	if !strings.Contains(d.Reason, "Science Hour") {
		t.Fatalf("deny reason must name the active block, got %q", d.Reason)
	}
	if len(d.AllowedCategories) != 1 || d.AllowedCategories[0] != "science" {
		t.Fatalf("expected allowed categories [science], got %v", d.AllowedCategories)
	}
}

func TestNoActiveBlockUnrestricted(t *testing.T) {
	g := New(scienceSchedule(t), nil, DefaultConfig())

	d := g.CheckAccess("games", at(12, 0))
	if !d.Allowed {
		t.Fatalf("any category is allowed outside blocks: %+v", d)
	}
	if d.ActiveBlock != nil {
		t.Fatal("no active block should be reported at 12:00")
	}
	if d.NextBlock == nil || d.NextBlock.Name != "Free Play" {
		t.Fatalf("expected Free Play as next block, got %+v", d.NextBlock)
	}
}

func TestEmptyScheduleAlwaysAllows(t *testing.T) {
	empty, err := schedule.NewStore(nil)
	if err != nil {
		t.Fatal(err)
	}
	g := New(empty, nil, DefaultConfig())

	for _, cat := range []string{"science", "games", "anything"} {
		if d := g.CheckAccess(cat, at(9, 30)); !d.Allowed {
			t.Fatalf("empty schedule must allow %q: %+v", cat, d)
		}
	}
}

func TestGoalCompletionUnlocksBreak(t *testing.T) {
	checker := stubChecker{comp: session.Completion{IsComplete: true}}
	g := New(scienceSchedule(t), checker, DefaultConfig())

	d := g.CheckAccess("games", at(9, 45))
	if !d.Allowed {
		t.Fatalf("completed goal should unlock outside categories: %+v", d)
	}
	if !strings.Contains(d.Reason, "Science Hour") {
		t.Fatalf("break reason should name the block, got %q", d.Reason)
	}
}

func TestIncompleteGoalStaysLocked(t *testing.T) {
	checker := stubChecker{comp: session.Completion{IsComplete: false, TimeMet: true}}
	g := New(scienceSchedule(t), checker, DefaultConfig())

	if d := g.CheckAccess("games", at(9, 45)); d.Allowed {
		t.Fatalf("incomplete goal must not unlock: %+v", d)
	}
}

func TestBreakPolicyDisabled(t *testing.T) {
	checker := stubChecker{comp: session.Completion{IsComplete: true}}
	g := New(scienceSchedule(t), checker, Config{RequireGoalBeforeFreeAccess: false})

	if d := g.CheckAccess("games", at(9, 45)); d.Allowed {
		t.Fatalf("disabled break policy locks the whole block: %+v", d)
	}
}

func TestNoSessionDuringBlockStaysLocked(t *testing.T) {
	checker := stubChecker{err: session.ErrSessionNotFound}
	g := New(scienceSchedule(t), checker, DefaultConfig())

	if d := g.CheckAccess("games", at(9, 45)); d.Allowed {
		t.Fatalf("no session means no earned break: %+v", d)
	}
}

func TestCheckerFailureDegradesToLock(t *testing.T) {
	checker := stubChecker{err: errors.New("store unavailable")}
	g := New(scienceSchedule(t), checker, DefaultConfig())

	if d := g.CheckAccess("games", at(9, 45)); d.Allowed {
		t.Fatalf("checker failure must fail closed: %+v", d)
	}
}

func TestDecisionIsDerivedNotSticky(t *testing.T) {
	g := New(scienceSchedule(t), stubChecker{err: session.ErrSessionNotFound}, DefaultConfig())

	// Same category, different times: inside the block it is denied,
	// outside it is allowed. Nothing is cached between calls.
	if d := g.CheckAccess("games", at(9, 30)); d.Allowed {
		t.Fatal("expected deny inside Science Hour")
	}
	if d := g.CheckAccess("games", at(15, 30)); !d.Allowed {
		t.Fatal("expected allow inside Free Play")
	}
	if d := g.CheckAccess("games", at(12, 0)); !d.Allowed {
		t.Fatal("expected allow between blocks")
	}
}
