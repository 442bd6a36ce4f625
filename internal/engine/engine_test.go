package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"attentiond/internal/classify"
	"attentiond/internal/fusion"
	"attentiond/internal/session"
	"attentiond/internal/signal"
	"attentiond/internal/store"
)

// fixedSource returns a constant value for its kind.
type fixedSource struct {
	kind  signal.Kind
	value float64
	err   error
}

func (s *fixedSource) Kind() signal.Kind { return s.kind }
func (s *fixedSource) Acquire() error    { return nil }
func (s *fixedSource) Release() error    { return nil }
func (s *fixedSource) Sample(ctx context.Context) (float64, error) {
	return s.value, s.err
}

// memorySink records appended attention entries.
type memorySink struct {
	entries []store.AttentionEntry
	err     error
}

func (m *memorySink) AppendAttention(e store.AttentionEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func newTestEngine(sources []signal.Source, sink AttentionSink) (*Engine, *session.Manager) {
	collector := signal.NewCollector(sources, signal.DefaultCollectorConfig())
	sessions := session.NewManager(nil, session.DefaultConfig())
	eng := New(
		collector,
		fusion.NewEngine(fusion.DefaultWeights()),
		classify.NewClassifier(classify.DefaultConfig()),
		sessions,
		sink,
		DefaultConfig(),
	)
	return eng, sessions
}

func TestTickPublishesSnapshot(t *testing.T) {
	eng, _ := newTestEngine([]signal.Source{
		&fixedSource{kind: signal.KindCamera, value: 0.9},
		&fixedSource{kind: signal.KindKeyboard, value: 0.7},
	}, nil)

	if eng.Snapshot() != nil {
		t.Fatal("no snapshot should exist before the first tick")
	}

	now := time.Now()
	snap := eng.Tick(context.Background(), now)

	if snap.AvailableSignals != 2 {
		t.Fatalf("expected 2 available signals, got %d", snap.AvailableSignals)
	}
	if snap.Score <= 0 || snap.Score > 100 {
		t.Fatalf("score out of range: %.1f", snap.Score)
	}
	if !snap.At.Equal(now) {
		t.Fatal("snapshot timestamp should be the tick time")
	}

	published := eng.Snapshot()
	if published == nil || published.Tick != snap.Tick {
		t.Fatal("tick result should be the published snapshot")
	}
}

func TestTickNoSignalsIsNeutral(t *testing.T) {
	eng, _ := newTestEngine([]signal.Source{
		&fixedSource{kind: signal.KindCamera, err: errors.New("device gone")},
	}, nil)

	snap := eng.Tick(context.Background(), time.Now())

	if snap.AvailableSignals != 0 {
		t.Fatalf("expected 0 available, got %d", snap.AvailableSignals)
	}
	if snap.Score != fusion.NeutralScore {
		t.Fatalf("expected neutral %.0f, got %.1f", fusion.NeutralScore, snap.Score)
	}
}

func TestTickSequenceCommitsTransition(t *testing.T) {
	eng, _ := newTestEngine([]signal.Source{
		&fixedSource{kind: signal.KindCamera, value: 0.95},
		&fixedSource{kind: signal.KindKeyboard, value: 0.9},
	}, nil)

	start := time.Now()
	var snap Snapshot
	for i := 0; i < 4; i++ {
		snap = eng.Tick(context.Background(), start.Add(time.Duration(i)*5*time.Second))
	}

	// 15s of high scores exceeds the 10s dwell.
	if snap.State != classify.StateFocused {
		t.Fatalf("expected FOCUSED after dwell, got %s", snap.State)
	}
}

func TestTickFeedsSink(t *testing.T) {
	sink := &memorySink{}
	eng, _ := newTestEngine([]signal.Source{
		&fixedSource{kind: signal.KindCamera, value: 0.6},
	}, sink)

	eng.Tick(context.Background(), time.Now())
	eng.Tick(context.Background(), time.Now())

	if len(sink.entries) != 2 {
		t.Fatalf("expected 2 sink entries, got %d", len(sink.entries))
	}
	if sink.entries[0].RunID != eng.RunID() {
		t.Fatal("entries should carry the engine's run id")
	}
	if sink.entries[0].State == "" {
		t.Fatal("entries should carry the classified state")
	}
}

func TestTickSinkFailureDoesNotStopLoop(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	eng, _ := newTestEngine([]signal.Source{
		&fixedSource{kind: signal.KindCamera, value: 0.6},
	}, sink)

	snap := eng.Tick(context.Background(), time.Now())
	if snap.Tick != 1 {
		t.Fatalf("tick should complete despite sink failure, got tick %d", snap.Tick)
	}
	if eng.Snapshot() == nil {
		t.Fatal("snapshot should still publish when the sink fails")
	}
}

func TestTickIngestsIntoActiveSession(t *testing.T) {
	eng, sessions := newTestEngine([]signal.Source{
		&fixedSource{kind: signal.KindCamera, value: 0.8},
	}, nil)

	if _, err := sessions.Start("Math", "education", time.Hour, 0.5); err != nil {
		t.Fatal(err)
	}

	eng.Tick(context.Background(), time.Now())
	eng.Tick(context.Background(), time.Now())

	s, ok := sessions.Active()
	if !ok {
		t.Fatal("session should still be active")
	}
	if s.SampleCount != 2 {
		t.Fatalf("expected 2 ingested samples, got %d", s.SampleCount)
	}
	if s.MeanEngagement() != 0.8 {
		t.Fatalf("expected mean 0.8, got %.2f", s.MeanEngagement())
	}
}

func TestStartStopLifecycle(t *testing.T) {
	eng, _ := newTestEngine([]signal.Source{
		&fixedSource{kind: signal.KindCamera, value: 0.7},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// The loop runs its first tick immediately.
	deadline := time.Now().Add(2 * time.Second)
	for eng.Snapshot() == nil {
		if time.Now().After(deadline) {
			t.Fatal("no snapshot published after Start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	eng.Stop()

	// Stop must be idempotent with respect to the published snapshot.
	if eng.Snapshot() == nil {
		t.Fatal("snapshot should survive Stop")
	}
}
