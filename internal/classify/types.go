package classify

import "time"

// #region state

// State is the discrete engagement level. Only the classifier mutates
// the current state; every other component reads it.
type State string

const (
	StateFocused    State = "FOCUSED"
	StateActive     State = "ACTIVE"
	StateDistracted State = "DISTRACTED"
	StateInactive   State = "INACTIVE"
)

// Rank orders states by engagement: INACTIVE=0 .. FOCUSED=3.
func (s State) Rank() int {
	switch s {
	case StateFocused:
		return 3
	case StateActive:
		return 2
	case StateDistracted:
		return 1
	default:
		return 0
	}
}

// #endregion state

// #region bands

// Bands maps composite-score cutoffs to states: score >= Focused is
// FOCUSED, >= Active is ACTIVE, >= Distracted is DISTRACTED, else
// INACTIVE. Cutoffs are configuration, not contract.
type Bands struct {
	Focused    float64
	Active     float64
	Distracted float64
}

// #endregion bands

// #region config

// Config holds classifier tuning knobs.
type Config struct {
	Bands           Bands
	MinDwell        time.Duration // candidate must persist this long before commit
	ConfidenceBase  float64       // confidence right after a transition
	ConfidenceCap   float64       // upper bound while a state is sustained
	ConfidenceRamp  time.Duration // dwell needed to climb from base to cap
	TrendWindow     int           // samples per trend half-window
	HistoryCapacity int           // bounded FIFO of composite scores
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Bands:           Bands{Focused: 75, Active: 50, Distracted: 25},
		MinDwell:        10 * time.Second,
		ConfidenceBase:  0.5,
		ConfidenceCap:   0.95,
		ConfidenceRamp:  300 * time.Second,
		TrendWindow:     10,
		HistoryCapacity: 60,
	}
}

// #endregion config

// #region state-record

// StateRecord is the classifier's working state: the committed state,
// how long it has held, any pending candidate awaiting dwell
// confirmation, and the derived confidence. Held in memory for the
// process lifetime; only derived snapshots are persisted.
type StateRecord struct {
	Current      State
	EnteredAt    time.Time
	Pending      State // "" when no candidate is pending
	PendingSince time.Time
	Confidence   float64
}

// NewStateRecord returns the startup record: INACTIVE at base confidence.
func NewStateRecord(now time.Time, config Config) StateRecord {
	return StateRecord{
		Current:    StateInactive,
		EnteredAt:  now,
		Confidence: config.ConfidenceBase,
	}
}

// #endregion state-record
