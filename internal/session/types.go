package session

import (
	"errors"
	"time"
)

// #region errors

var (
	// ErrSessionActive is returned when StartSession is called while a
	// session is already running. Starting is rejected, never queued.
	ErrSessionActive = errors.New("session already active")

	// ErrSessionNotFound is returned when an operation targets no
	// active session (or an unknown session id).
	ErrSessionNotFound = errors.New("session not found")
)

// #endregion errors

// #region session

// Session tracks one active scheduled block: its goal, its threshold,
// and the running engagement totals. Mean engagement is the lifetime
// sum/count, not a windowed average, so brief focus spikes cannot game
// completion.
type Session struct {
	ID            string
	BlockName     string
	BlockCategory string
	StartedAt     time.Time
	EndedAt       time.Time // zero while the session is open
	GoalDuration  time.Duration
	Threshold     float64 // required mean engagement in [0,1]
	SampleCount   int
	ScoreSum      float64 // sum of composite scores (0-100 scale)
}

// MeanEngagement returns the lifetime mean on the [0,1] scale used by
// thresholds. Zero before any sample arrives.
func (s Session) MeanEngagement() float64 {
	if s.SampleCount == 0 {
		return 0
	}
	return s.ScoreSum / float64(s.SampleCount) / 100
}

// #endregion session

// #region completion

// Metrics reports session progress numbers for callers and logs.
type Metrics struct {
	ElapsedMinutes    float64
	GoalMinutes       float64
	MeanEngagement    float64
	Threshold         float64
	TimeProgress      float64 // percent of goal elapsed
	AttentionProgress float64 // percent of threshold reached
}

// Completion is the dual-condition check result: complete only when
// both the elapsed-time goal and the mean-engagement goal are met.
type Completion struct {
	IsComplete   bool
	TimeMet      bool
	AttentionMet bool
	CanEnd       bool // completion, or the force-end valve fired
	Metrics      Metrics
}

// #endregion completion

// #region progress

// Progress is the session control surface's live view.
type Progress struct {
	BlockName      string
	Elapsed        time.Duration
	Goal           time.Duration
	PercentTime    float64
	MeanEngagement float64
	Threshold      float64
	CanEnd         bool
	ContentCount   int
}

// #endregion progress

// #region content

// ContentItem records one piece of content surfaced during a session.
type ContentItem struct {
	ContentID   string
	ContentType string
	Title       string
	ShownAt     time.Time
}

// #endregion content

// #region summary

// Summary is the persisted record of a finished session.
type Summary struct {
	Session        Session
	Duration       time.Duration
	MeanEngagement float64
	ContentCount   int
	Content        []ContentItem
	Completed      bool // dual condition was met at end time
	Notes          string
}

// #endregion summary

// #region recorder

// Recorder is the persistence sink for session lifecycle records.
// Write-only from the manager's perspective; the manager never reads
// historical rows back to make a decision.
type Recorder interface {
	SessionStarted(s Session) error
	SessionEnded(sum Summary) error
	ContentShown(sessionID string, item ContentItem) error
}

// #endregion recorder

// #region config

// Config holds session policy knobs.
type Config struct {
	// ForceEndFactor is the escape valve: once elapsed exceeds this
	// multiple of the goal duration, the session may end regardless of
	// engagement, so one bad sensor window cannot lock the user out
	// indefinitely.
	ForceEndFactor float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{ForceEndFactor: 1.5}
}

// #endregion config
