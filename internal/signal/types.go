package signal

import (
	"context"
	"time"
)

// #region kind

// Kind enumerates the known signal sources. The set is fixed per
// deployment; fusion weights are keyed by Kind.
type Kind string

const (
	KindCamera     Kind = "camera"
	KindMicrophone Kind = "microphone"
	KindKeyboard   Kind = "keyboard"
	KindMouse      Kind = "mouse"
	KindWindow     Kind = "window"
	KindCPU        Kind = "cpu"
)

// Kinds returns all known signal kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindCamera, KindMicrophone, KindKeyboard, KindMouse, KindWindow, KindCPU}
}

// #endregion kind

// #region sample

// Sample is one normalized reading from a source at a tick.
// OK distinguishes "unavailable this tick" from a genuine zero score.
type Sample struct {
	Source     Kind
	Value      float64 // in [0,1], meaningful only when OK
	OK         bool
	CapturedAt time.Time
}

// Unavailable builds a not-OK sample for the given source.
func Unavailable(kind Kind, at time.Time) Sample {
	return Sample{Source: kind, OK: false, CapturedAt: at}
}

// #endregion sample

// #region source-interface

// Source wraps one physical or software sensor. Acquire is called once
// at startup and Release once at shutdown; exclusive hardware handles
// must not be reopened per tick.
type Source interface {
	Kind() Kind
	Acquire() error
	Sample(ctx context.Context) (float64, error)
	Release() error
}

// #endregion source-interface

// #region collector-config

// CollectorConfig holds tuning knobs for per-tick sampling.
type CollectorConfig struct {
	SampleTimeout time.Duration // per-source budget within a tick
}

// DefaultCollectorConfig returns sensible defaults.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		SampleTimeout: 2 * time.Second,
	}
}

// #endregion collector-config
