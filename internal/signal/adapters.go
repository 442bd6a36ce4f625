package signal

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoProbe is returned by adapters whose platform probe was not wired.
var ErrNoProbe = errors.New("no probe configured")

// #region input-activity

// InputActivitySource scores recency of keyboard or mouse input: 1.0
// immediately after an event, decaying linearly to 0 over the decay
// window. The platform hook calls MarkEvent; the adapter itself never
// polls hardware.
type InputActivitySource struct {
	kind  Kind
	decay time.Duration

	mu        sync.Mutex
	lastEvent time.Time
	wired     bool
}

// NewKeyboardSource creates an input-recency source for keyboard events.
func NewKeyboardSource(decay time.Duration) *InputActivitySource {
	return &InputActivitySource{kind: KindKeyboard, decay: decay}
}

// NewMouseSource creates an input-recency source for mouse events.
func NewMouseSource(decay time.Duration) *InputActivitySource {
	return &InputActivitySource{kind: KindMouse, decay: decay}
}

// MarkEvent records an input event. Safe for concurrent use from
// platform listener callbacks.
func (s *InputActivitySource) MarkEvent(at time.Time) {
	s.mu.Lock()
	s.lastEvent = at
	s.wired = true
	s.mu.Unlock()
}

func (s *InputActivitySource) Kind() Kind     { return s.kind }
func (s *InputActivitySource) Acquire() error { return nil }
func (s *InputActivitySource) Release() error { return nil }

func (s *InputActivitySource) Sample(ctx context.Context) (float64, error) {
	s.mu.Lock()
	last := s.lastEvent
	wired := s.wired
	s.mu.Unlock()

	if !wired {
		return 0, ErrNoProbe
	}
	idle := time.Since(last)
	if idle >= s.decay {
		return 0, nil
	}
	return 1 - idle.Seconds()/s.decay.Seconds(), nil
}

// #endregion input-activity

// #region probe-source

// ProbeFunc reads one normalized value from a platform capability.
type ProbeFunc func(ctx context.Context) (float64, error)

// ProbeSource adapts a raw platform probe (CPU load, window focus
// stability) to the Source interface. Probe and lifecycle hooks are
// injectable so fusion and classification are testable without any
// real sensor.
type ProbeSource struct {
	kind    Kind
	probe   ProbeFunc
	acquire func() error
	release func() error
}

// NewProbeSource wraps probe as a source of the given kind. acquire and
// release may be nil.
func NewProbeSource(kind Kind, probe ProbeFunc, acquire, release func() error) *ProbeSource {
	return &ProbeSource{kind: kind, probe: probe, acquire: acquire, release: release}
}

func (s *ProbeSource) Kind() Kind { return s.kind }

func (s *ProbeSource) Acquire() error {
	if s.acquire == nil {
		return nil
	}
	return s.acquire()
}

func (s *ProbeSource) Release() error {
	if s.release == nil {
		return nil
	}
	return s.release()
}

func (s *ProbeSource) Sample(ctx context.Context) (float64, error) {
	if s.probe == nil {
		return 0, ErrNoProbe
	}
	return s.probe(ctx)
}

// #endregion probe-source

// #region cpu-mapping

// CPULoadScore maps a CPU utilization fraction to an engagement score.
// Moderate load reads as focused work; extremes read as idle or churn.
func CPULoadScore(utilization float64) float64 {
	switch {
	case utilization >= 0.3 && utilization <= 0.6:
		return 0.8
	case utilization > 0.6:
		return 0.4
	default:
		return 0.5
	}
}

// #endregion cpu-mapping
