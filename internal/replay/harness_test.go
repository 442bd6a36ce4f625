package replay

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"attentiond/internal/classify"
	"attentiond/internal/signal"
)

func steadyTicks(score float64, n int, step time.Duration) []Tick {
	out := make([]Tick, n)
	for i := range out {
		out[i] = Tick{
			Offset: time.Duration(i) * step,
			Values: map[signal.Kind]float64{
				signal.KindCamera:   score / 100,
				signal.KindKeyboard: score / 100,
			},
		}
	}
	return out
}

func TestRunIsDeterministic(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ticks := steadyTicks(85, 20, 5*time.Second)

	r1, s1 := Run(start, ticks, DefaultConfig())
	r2, s2 := Run(start, ticks, DefaultConfig())

	if len(r1) != len(r2) {
		t.Fatalf("result lengths differ: %d vs %d", len(r1), len(r2))
	}
	for i := range r1 {
		if r1[i] != r2[i] {
			t.Fatalf("tick %d differs: %+v vs %+v", i, r1[i], r2[i])
		}
	}
	if s1 != s2 {
		t.Fatalf("summaries differ: %+v vs %+v", s1, s2)
	}
}

func TestRunReachesFocusedAfterDwell(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ticks := steadyTicks(90, 10, 5*time.Second)

	results, summary := Run(start, ticks, DefaultConfig())

	if summary.FinalState != classify.StateFocused {
		t.Fatalf("expected FOCUSED final state, got %s", summary.FinalState)
	}
	if summary.Transitions == 0 {
		t.Fatal("expected at least one transition from the initial state")
	}
	// Early ticks sit inside the dwell window.
	if results[0].State == classify.StateFocused {
		t.Fatal("first tick should not have committed FOCUSED yet")
	}
}

func TestRunOutlierTickFilteredOut(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ticks := steadyTicks(90, 20, 5*time.Second)
	// One distracted tick mid-run: hysteresis must swallow it.
	ticks[10].Values = map[signal.Kind]float64{
		signal.KindCamera:   0.1,
		signal.KindKeyboard: 0.1,
	}

	_, summary := Run(start, ticks, DefaultConfig())

	if summary.FinalState != classify.StateFocused {
		t.Fatalf("expected FOCUSED despite outlier, got %s", summary.FinalState)
	}
	if summary.Transitions != 1 {
		t.Fatalf("expected exactly 1 transition, got %d", summary.Transitions)
	}
}

func TestRunSessionCompletion(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	config := DefaultConfig()
	config.Session = &SessionSpec{
		BlockName: "Math",
		Category:  "education",
		Goal:      10 * time.Minute,
		Threshold: 0.6,
	}

	// 12 minutes of high engagement at 5s ticks.
	ticks := steadyTicks(85, 145, 5*time.Second)
	_, summary := Run(start, ticks, config)

	if summary.Completion == nil {
		t.Fatal("expected a session completion in the summary")
	}
	c := summary.Completion
	if !c.TimeMet || !c.AttentionMet || !c.IsComplete {
		t.Fatalf("expected completed session, got %+v", c)
	}
}

func TestRunWithoutSessionHasNilCompletion(t *testing.T) {
	start := time.Now()
	_, summary := Run(start, steadyTicks(50, 5, time.Second), DefaultConfig())
	if summary.Completion != nil {
		t.Fatalf("no session replayed, completion should be nil: %+v", summary.Completion)
	}
}

func TestRunEmptyTickIsNeutral(t *testing.T) {
	start := time.Now()
	ticks := []Tick{{Offset: 0, Values: nil}}

	results, _ := Run(start, ticks, DefaultConfig())
	if results[0].Score != 50 {
		t.Fatalf("no signals should fuse to neutral 50, got %.1f", results[0].Score)
	}
	if results[0].AvailableCount != 0 {
		t.Fatalf("expected 0 available, got %d", results[0].AvailableCount)
	}
}

func TestLoadFixtureRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	raw := `{
  "description": "morning math warmup",
  "session": {"block_name": "Math", "category": "education", "goal_minutes": 30, "threshold": 0.7},
  "ticks": [
    {"offset_seconds": 0, "signals": {"camera": 0.9, "keyboard": 0.8}},
    {"offset_seconds": 5, "signals": {"camera": 0.85}},
    {"offset_seconds": 10, "signals": {}}
  ]
}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Description != "morning math warmup" {
		t.Fatalf("description wrong: %q", f.Description)
	}

	spec := f.SessionSpec()
	if spec == nil || spec.Goal != 30*time.Minute || spec.Threshold != 0.7 {
		t.Fatalf("session spec wrong: %+v", spec)
	}

	ticks := f.HarnessTicks()
	if len(ticks) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(ticks))
	}
	if ticks[1].Offset != 5*time.Second {
		t.Fatalf("offset wrong: %s", ticks[1].Offset)
	}
	if ticks[0].Values[signal.KindCamera] != 0.9 {
		t.Fatalf("signal values wrong: %+v", ticks[0].Values)
	}
	if len(ticks[2].Values) != 0 {
		t.Fatalf("empty signals should produce empty values: %+v", ticks[2].Values)
	}
}

func TestLoadFixtureMissingFile(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestLoadFixtureMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for malformed fixture")
	}
}
