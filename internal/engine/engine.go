package engine

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"attentiond/internal/classify"
	"attentiond/internal/fusion"
	"attentiond/internal/session"
	"attentiond/internal/signal"
	"attentiond/internal/store"
	"github.com/google/uuid"
)

// #region snapshot

// Snapshot is the immutable published view of the latest committed
// tick. Readers always see a complete snapshot, never partially
// updated fields.
type Snapshot struct {
	State            classify.State
	Score            float64
	Confidence       float64
	Trend            float64
	Breakdown        map[signal.Kind]float64
	AvailableSignals int
	Recommendations  []string
	Tick             uint64
	At               time.Time
}

// #endregion snapshot

// #region config

// Config holds engine tuning knobs.
type Config struct {
	Interval time.Duration // sampling period
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: 5 * time.Second}
}

// #endregion config

// #region sink

// AttentionSink receives per-tick snapshots for the audit trail.
// Write-only; append failures degrade to a log line, never a stall.
type AttentionSink interface {
	AppendAttention(e store.AttentionEntry) error
}

// #endregion sink

// #region engine

// Engine drives the pipeline: collect signals, fuse, classify, ingest
// into the active session, persist the snapshot. The loop goroutine is
// the only writer of the classifier record and the session totals;
// everyone else reads the atomically swapped snapshot.
type Engine struct {
	collector  *signal.Collector
	fuser      *fusion.Engine
	classifier *classify.Classifier
	sessions   *session.Manager
	sink       AttentionSink
	config     Config

	runID    string
	record   classify.StateRecord
	tick     uint64
	snapshot atomic.Pointer[Snapshot]
	stop     chan struct{}
	done     chan struct{}
}

// New wires an engine. sink may be nil to run without persistence.
func New(collector *signal.Collector, fuser *fusion.Engine, classifier *classify.Classifier,
	sessions *session.Manager, sink AttentionSink, config Config) *Engine {
	return &Engine{
		collector:  collector,
		fuser:      fuser,
		classifier: classifier,
		sessions:   sessions,
		sink:       sink,
		config:     config,
		runID:      uuid.New().String(),
		record:     classifier.NewRecord(time.Now()),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// RunID identifies this monitor run in the attention log.
func (e *Engine) RunID() string {
	return e.runID
}

// #endregion engine

// #region start

// Start acquires the sensor handles once and launches the sampling
// loop. Handles stay held until Stop to avoid per-tick device
// contention.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.collector.Acquire(); err != nil {
		return err
	}
	e.record = e.classifier.NewRecord(time.Now())

	log.Printf("[ENGINE] run %s started (interval %s)", e.runID, e.config.Interval)

	go e.loop(ctx)
	return nil
}

func (e *Engine) loop(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	// First tick immediately so readers have a snapshot right away.
	e.Tick(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stop:
			return
		case now := <-ticker.C:
			e.Tick(ctx, now)
		}
	}
}

// #endregion start

// #region tick

// Tick runs one pipeline pass. Exported for the replay harness; the
// daemon only drives it from the loop goroutine. Per-tick failures are
// absorbed: one bad sensor reading never stops the loop.
func (e *Engine) Tick(ctx context.Context, now time.Time) Snapshot {
	samples := e.collector.Collect(ctx)
	reading := e.fuser.Fuse(samples)

	if reading.AvailableCount == 0 {
		log.Printf("[ENGINE] no signals available, neutral composite %.0f", reading.Score)
	}

	prev := e.record.Current
	rec, transitioned := e.classifier.Classify(reading, e.record, now)
	e.record = rec
	if transitioned {
		log.Printf("[ENGINE] state %s -> %s (score %.1f, confidence %.2f)",
			prev, rec.Current, reading.Score, rec.Confidence)
	}

	e.sessions.Ingest(reading)

	trend := e.classifier.Trend()
	e.tick++
	snap := Snapshot{
		State:            rec.Current,
		Score:            reading.Score,
		Confidence:       rec.Confidence,
		Trend:            trend,
		Breakdown:        reading.Breakdown,
		AvailableSignals: reading.AvailableCount,
		Recommendations:  classify.Recommendations(rec.Current, trend),
		Tick:             e.tick,
		At:               now,
	}
	e.snapshot.Store(&snap)

	if e.sink != nil {
		if err := e.sink.AppendAttention(e.entryFor(snap)); err != nil {
			log.Printf("[ENGINE] append attention: %v", err)
		}
	}
	return snap
}

func (e *Engine) entryFor(snap Snapshot) store.AttentionEntry {
	return store.AttentionEntry{
		RunID:            e.runID,
		Timestamp:        snap.At,
		State:            string(snap.State),
		Score:            snap.Score,
		Confidence:       snap.Confidence,
		Trend:            snap.Trend,
		AvailableSignals: snap.AvailableSignals,
		Breakdown:        snap.Breakdown,
	}
}

// #endregion tick

// #region snapshot-read

// Snapshot returns the latest committed snapshot. Non-blocking; nil
// before the first tick completes.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// #endregion snapshot-read

// #region stop

// Stop finishes the current tick, checkpoints the last committed
// snapshot, and releases sensor handles.
func (e *Engine) Stop() {
	close(e.stop)
	<-e.done

	if snap := e.snapshot.Load(); snap != nil && e.sink != nil {
		if err := e.sink.AppendAttention(e.entryFor(*snap)); err != nil {
			log.Printf("[ENGINE] checkpoint: %v", err)
		}
	}
	e.collector.Release()
	log.Printf("[ENGINE] run %s stopped", e.runID)
}

// #endregion stop
