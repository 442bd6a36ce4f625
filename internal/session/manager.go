package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"attentiond/internal/fusion"
	"github.com/google/uuid"
)

// #region manager

// Manager owns the lifecycle of the single active session. The
// sampling loop is the only caller of Ingest; the control surface
// (start/end/progress) may be called from any goroutine.
type Manager struct {
	config   Config
	recorder Recorder
	now      func() time.Time

	mu      sync.Mutex
	active  *Session
	content []ContentItem
}

// NewManager creates a session manager. recorder may be nil (summaries
// are then kept in memory only and dropped on end).
func NewManager(recorder Recorder, config Config) *Manager {
	return NewManagerWithClock(recorder, config, time.Now)
}

// NewManagerWithClock creates a manager with an injected clock. Used by
// the replay harness and tests to drive virtual time.
func NewManagerWithClock(recorder Recorder, config Config, now func() time.Time) *Manager {
	return &Manager{
		config:   config,
		recorder: recorder,
		now:      now,
	}
}

// #endregion manager

// #region start

// Start opens a new session for a block. Exactly one session may be
// active; a second Start returns ErrSessionActive.
func (m *Manager) Start(blockName, category string, goal time.Duration, threshold float64) (Session, error) {
	if goal <= 0 {
		return Session{}, fmt.Errorf("goal duration must be positive, got %s", goal)
	}
	if threshold < 0 || threshold > 1 {
		return Session{}, fmt.Errorf("threshold must be in [0,1], got %.2f", threshold)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return Session{}, fmt.Errorf("cannot start %q while %q is active: %w",
			blockName, m.active.BlockName, ErrSessionActive)
	}

	s := Session{
		ID:            uuid.New().String(),
		BlockName:     blockName,
		BlockCategory: category,
		StartedAt:     m.now(),
		GoalDuration:  goal,
		Threshold:     threshold,
	}
	m.active = &s
	m.content = nil

	if m.recorder != nil {
		if err := m.recorder.SessionStarted(s); err != nil {
			log.Printf("[SESSION] record start: %v", err)
		}
	}

	log.Printf("[SESSION] started %s (%s, goal %s, threshold %.0f%%)",
		s.BlockName, s.BlockCategory, s.GoalDuration, s.Threshold*100)
	return s, nil
}

// #endregion start

// #region ingest

// Ingest folds one composite reading into the active session's running
// totals. Ignored when no session is active. Samples arrive strictly
// in tick order from the single sampling loop.
func (m *Manager) Ingest(reading fusion.CompositeReading) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return
	}
	m.active.SampleCount++
	m.active.ScoreSum += reading.Score
}

// #endregion ingest

// #region completion

// Completion evaluates the dual condition: complete only if elapsed >=
// goal AND mean engagement >= threshold. CanEnd additionally fires at
// ForceEndFactor times the goal regardless of engagement.
func (m *Manager) Completion() (Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Completion{}, ErrSessionNotFound
	}
	return m.completionLocked(), nil
}

func (m *Manager) completionLocked() Completion {
	s := m.active
	elapsed := m.now().Sub(s.StartedAt)
	mean := s.MeanEngagement()

	timeMet := elapsed >= s.GoalDuration
	attentionMet := mean >= s.Threshold
	complete := timeMet && attentionMet
	forceEnd := elapsed >= time.Duration(float64(s.GoalDuration)*m.config.ForceEndFactor)

	metrics := Metrics{
		ElapsedMinutes: elapsed.Minutes(),
		GoalMinutes:    s.GoalDuration.Minutes(),
		MeanEngagement: mean,
		Threshold:      s.Threshold,
		TimeProgress:   elapsed.Minutes() / s.GoalDuration.Minutes() * 100,
	}
	if s.Threshold > 0 {
		metrics.AttentionProgress = mean / s.Threshold * 100
	}

	return Completion{
		IsComplete:   complete,
		TimeMet:      timeMet,
		AttentionMet: attentionMet,
		CanEnd:       complete || forceEnd,
		Metrics:      metrics,
	}
}

// #endregion completion

// #region content

// RecordContent logs a content item surfaced during the active session.
func (m *Manager) RecordContent(contentID, contentType, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrSessionNotFound
	}
	item := ContentItem{
		ContentID:   contentID,
		ContentType: contentType,
		Title:       title,
		ShownAt:     m.now(),
	}
	m.content = append(m.content, item)

	if m.recorder != nil {
		if err := m.recorder.ContentShown(m.active.ID, item); err != nil {
			log.Printf("[SESSION] record content: %v", err)
		}
	}
	return nil
}

// #endregion content

// #region end

// End finalizes the active session, persists its summary, and clears
// the active slot.
func (m *Manager) End(notes string) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Summary{}, ErrSessionNotFound
	}

	comp := m.completionLocked()
	s := *m.active
	s.EndedAt = m.now()

	sum := Summary{
		Session:        s,
		Duration:       s.EndedAt.Sub(s.StartedAt),
		MeanEngagement: s.MeanEngagement(),
		ContentCount:   len(m.content),
		Content:        m.content,
		Completed:      comp.IsComplete,
		Notes:          notes,
	}

	if m.recorder != nil {
		if err := m.recorder.SessionEnded(sum); err != nil {
			log.Printf("[SESSION] record end: %v", err)
		}
	}

	m.active = nil
	m.content = nil

	log.Printf("[SESSION] ended %s after %s (mean %.0f%%, completed=%v)",
		s.BlockName, sum.Duration.Round(time.Second), sum.MeanEngagement*100, sum.Completed)
	return sum, nil
}

// #endregion end

// #region progress

// Progress reports the live view of the active session.
func (m *Manager) Progress() (Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Progress{}, ErrSessionNotFound
	}

	comp := m.completionLocked()
	s := m.active
	elapsed := m.now().Sub(s.StartedAt)

	return Progress{
		BlockName:      s.BlockName,
		Elapsed:        elapsed,
		Goal:           s.GoalDuration,
		PercentTime:    comp.Metrics.TimeProgress,
		MeanEngagement: s.MeanEngagement(),
		Threshold:      s.Threshold,
		CanEnd:         comp.CanEnd,
		ContentCount:   len(m.content),
	}, nil
}

// #endregion progress

// #region active

// Active returns a copy of the active session, if any.
func (m *Manager) Active() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Session{}, false
	}
	return *m.active, true
}

// #endregion active
