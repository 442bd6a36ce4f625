package fusion

import (
	"time"

	"attentiond/internal/signal"
)

// NeutralScore is the composite returned when no signal is available.
// A documented degenerate case, not an error.
const NeutralScore = 50.0

// #region weights

// Weights assigns a static per-deployment weight to each signal kind.
// Weights need not sum to 1; Fuse renormalizes over the available
// subset. A zero weight removes the signal from fusion entirely.
type Weights struct {
	Camera     float64
	Microphone float64
	Keyboard   float64
	Mouse      float64
	Window     float64
	CPU        float64
}

// DefaultWeights returns the standard multimodal weighting.
func DefaultWeights() Weights {
	return Weights{
		Camera:     0.30,
		Microphone: 0.15,
		Keyboard:   0.20,
		Mouse:      0.15,
		Window:     0.15,
		CPU:        0.05,
	}
}

// Get returns the weight for a kind. Unknown kinds weigh zero.
func (w Weights) Get(kind signal.Kind) float64 {
	switch kind {
	case signal.KindCamera:
		return w.Camera
	case signal.KindMicrophone:
		return w.Microphone
	case signal.KindKeyboard:
		return w.Keyboard
	case signal.KindMouse:
		return w.Mouse
	case signal.KindWindow:
		return w.Window
	case signal.KindCPU:
		return w.CPU
	default:
		return 0
	}
}

// #endregion weights

// #region composite-reading

// CompositeReading is the fused engagement estimate for one tick.
type CompositeReading struct {
	Timestamp      time.Time
	Score          float64 // in [0,100]
	Breakdown      map[signal.Kind]float64
	AvailableCount int
}

// #endregion composite-reading

// #region engine

// Engine combines per-signal samples into one composite score.
type Engine struct {
	weights Weights
}

// NewEngine creates a fusion engine with the given weights.
func NewEngine(weights Weights) *Engine {
	return &Engine{weights: weights}
}

// Fuse computes the weighted mean of the available samples only,
// renormalized so the weights of the available subset sum to 1. An
// absent sensor never drags the score down. With no available samples
// the composite is NeutralScore with AvailableCount 0.
func (e *Engine) Fuse(samples map[signal.Kind]signal.Sample) CompositeReading {
	reading := CompositeReading{
		Timestamp: time.Now(),
		Breakdown: make(map[signal.Kind]float64, len(samples)),
	}

	var weightedSum, weightTotal float64
	for _, kind := range signal.Kinds() {
		sample, ok := samples[kind]
		if !ok || !sample.OK {
			continue
		}
		weight := e.weights.Get(kind)
		if weight <= 0 {
			continue
		}
		reading.Breakdown[kind] = sample.Value
		weightedSum += weight * sample.Value
		weightTotal += weight
		reading.AvailableCount++
	}

	if reading.AvailableCount == 0 || weightTotal == 0 {
		reading.Score = NeutralScore
		reading.AvailableCount = 0
		return reading
	}

	reading.Score = (weightedSum / weightTotal) * 100
	return reading
}

// #endregion engine
