package replay

import (
	"time"

	"attentiond/internal/classify"
	"attentiond/internal/fusion"
	"attentiond/internal/session"
	"attentiond/internal/signal"
)

// #region types

// Tick is a single recorded sampling tick: an offset from the run
// start and the per-signal values that were available then. Kinds
// absent from Values were unavailable that tick.
type Tick struct {
	Offset time.Duration
	Values map[signal.Kind]float64
}

// SessionSpec optionally opens a session at run start so completion
// behavior can be replayed alongside classification.
type SessionSpec struct {
	BlockName string
	Category  string
	Goal      time.Duration
	Threshold float64
}

// Config bundles the pipeline configs for a replay run.
type Config struct {
	Weights    fusion.Weights
	Classifier classify.Config
	Session    *SessionSpec
}

// DefaultConfig returns defaults for both pipeline stages.
func DefaultConfig() Config {
	return Config{
		Weights:    fusion.DefaultWeights(),
		Classifier: classify.DefaultConfig(),
	}
}

// Result captures the pipeline outcome for one tick.
type Result struct {
	Offset         time.Duration
	Score          float64
	AvailableCount int
	State          classify.State
	Transitioned   bool
	Confidence     float64
	Trend          float64
}

// Summary aggregates a replay run.
type Summary struct {
	Ticks       int
	Transitions int
	FinalState  classify.State
	Completion  *session.Completion // nil when no session was replayed
}

// #endregion types

// #region run

// Run replays recorded ticks through fusion, classification, and
// session ingestion on a virtual clock. Entirely in-memory and
// deterministic given the same ticks and config.
func Run(start time.Time, ticks []Tick, config Config) ([]Result, Summary) {
	fuser := fusion.NewEngine(config.Weights)
	classifier := classify.NewClassifier(config.Classifier)
	record := classifier.NewRecord(start)

	clock := start
	sessions := session.NewManagerWithClock(nil, session.DefaultConfig(),
		func() time.Time { return clock })
	if config.Session != nil {
		sessions.Start(config.Session.BlockName, config.Session.Category,
			config.Session.Goal, config.Session.Threshold)
	}

	results := make([]Result, 0, len(ticks))
	summary := Summary{FinalState: record.Current}

	for _, tick := range ticks {
		clock = start.Add(tick.Offset)

		samples := make(map[signal.Kind]signal.Sample, len(tick.Values))
		for kind, value := range tick.Values {
			samples[kind] = signal.Sample{Source: kind, Value: value, OK: true, CapturedAt: clock}
		}

		reading := fuser.Fuse(samples)
		reading.Timestamp = clock

		var transitioned bool
		record, transitioned = classifier.Classify(reading, record, clock)
		sessions.Ingest(reading)

		if transitioned {
			summary.Transitions++
		}
		results = append(results, Result{
			Offset:         tick.Offset,
			Score:          reading.Score,
			AvailableCount: reading.AvailableCount,
			State:          record.Current,
			Transitioned:   transitioned,
			Confidence:     record.Confidence,
			Trend:          classifier.Trend(),
		})
	}

	summary.Ticks = len(ticks)
	summary.FinalState = record.Current
	if config.Session != nil {
		if comp, err := sessions.Completion(); err == nil {
			summary.Completion = &comp
		}
	}
	return results, summary
}

// #endregion run
