package fusion

import (
	"math"
	"testing"
	"time"

	"attentiond/internal/signal"
)

func sampleSet(values map[signal.Kind]float64) map[signal.Kind]signal.Sample {
	out := make(map[signal.Kind]signal.Sample, len(values))
	now := time.Now()
	for kind, v := range values {
		out[kind] = signal.Sample{Source: kind, Value: v, OK: true, CapturedAt: now}
	}
	return out
}

func TestFuseAllSignalsAvailable(t *testing.T) {
	e := NewEngine(DefaultWeights())
	reading := e.Fuse(sampleSet(map[signal.Kind]float64{
		signal.KindCamera:     0.9,
		signal.KindMicrophone: 0.3,
		signal.KindKeyboard:   0.8,
		signal.KindMouse:      0.6,
		signal.KindWindow:     0.7,
		signal.KindCPU:        0.5,
	}))

	if reading.AvailableCount != 6 {
		t.Fatalf("expected 6 available, got %d", reading.AvailableCount)
	}
	// weighted mean: .3*.9+.15*.3+.2*.8+.15*.6+.15*.7+.05*.5 = 0.695
	if math.Abs(reading.Score-69.5) > 0.01 {
		t.Fatalf("expected score 69.5, got %.2f", reading.Score)
	}
}

func TestFuseScoreAlwaysInRange(t *testing.T) {
	e := NewEngine(DefaultWeights())
	for _, v := range []float64{0, 0.25, 0.5, 1} {
		reading := e.Fuse(sampleSet(map[signal.Kind]float64{
			signal.KindCamera:   v,
			signal.KindKeyboard: v,
		}))
		if reading.Score < 0 || reading.Score > 100 {
			t.Fatalf("score %.2f out of [0,100] for input %.2f", reading.Score, v)
		}
	}
}

func TestFuseNoSignalsReturnsNeutral(t *testing.T) {
	e := NewEngine(DefaultWeights())
	reading := e.Fuse(nil)

	if reading.Score != NeutralScore {
		t.Fatalf("expected neutral %.0f, got %.2f", NeutralScore, reading.Score)
	}
	if reading.AvailableCount != 0 {
		t.Fatalf("expected 0 available, got %d", reading.AvailableCount)
	}
}

func TestFuseUnavailableSampleIgnored(t *testing.T) {
	e := NewEngine(DefaultWeights())
	samples := sampleSet(map[signal.Kind]float64{signal.KindCamera: 0.9})
	samples[signal.KindKeyboard] = signal.Unavailable(signal.KindKeyboard, time.Now())

	reading := e.Fuse(samples)

	if reading.AvailableCount != 1 {
		t.Fatalf("expected 1 available, got %d", reading.AvailableCount)
	}
	if reading.Score != 90 {
		t.Fatalf("single camera at 0.9 should renormalize to 90, got %.2f", reading.Score)
	}
	if _, ok := reading.Breakdown[signal.KindKeyboard]; ok {
		t.Fatal("unavailable signal should not appear in breakdown")
	}
}

func TestFuseRenormalizesOverAvailableSubset(t *testing.T) {
	// Two of four sources unavailable: the fused score equals the
	// weighted mean of the two available ones with weights renormalized
	// to sum to 1.
	e := NewEngine(DefaultWeights())
	reading := e.Fuse(sampleSet(map[signal.Kind]float64{
		signal.KindCamera:   0.8, // weight 0.30
		signal.KindKeyboard: 0.4, // weight 0.20
	}))

	want := (0.30*0.8 + 0.20*0.4) / (0.30 + 0.20) * 100
	if math.Abs(reading.Score-want) > 0.01 {
		t.Fatalf("expected %.2f, got %.2f", want, reading.Score)
	}
}

func TestFuseRemovingSourcePreservesRelativeContribution(t *testing.T) {
	// Camera vs keyboard contribute 0.30:0.20 whether or not other
	// sources exist; dropping mouse must not change their ratio.
	e := NewEngine(DefaultWeights())

	with := e.Fuse(sampleSet(map[signal.Kind]float64{
		signal.KindCamera:   1.0,
		signal.KindKeyboard: 0.0,
		signal.KindMouse:    0.5,
	}))
	without := e.Fuse(sampleSet(map[signal.Kind]float64{
		signal.KindCamera:   1.0,
		signal.KindKeyboard: 0.0,
	}))

	// With only camera and keyboard: score = 0.30/(0.30+0.20)*100 = 60.
	if math.Abs(without.Score-60) > 0.01 {
		t.Fatalf("expected 60, got %.2f", without.Score)
	}
	// Camera's share of the non-mouse weight is unchanged by mouse's
	// presence: strip mouse's contribution and renormalize.
	stripped := (with.Score/100*(0.30+0.20+0.15) - 0.15*0.5) / (0.30 + 0.20) * 100
	if math.Abs(stripped-without.Score) > 0.01 {
		t.Fatalf("relative contribution changed: %.2f vs %.2f", stripped, without.Score)
	}
}

func TestFuseZeroWeightKindExcluded(t *testing.T) {
	weights := DefaultWeights()
	weights.CPU = 0
	e := NewEngine(weights)

	reading := e.Fuse(sampleSet(map[signal.Kind]float64{
		signal.KindCPU:    1.0,
		signal.KindCamera: 0.5,
	}))

	if reading.AvailableCount != 1 {
		t.Fatalf("zero-weight kind should not count, got %d", reading.AvailableCount)
	}
	if reading.Score != 50 {
		t.Fatalf("expected 50 from camera alone, got %.2f", reading.Score)
	}
}

func TestFuseWeightsNeedNotSumToOne(t *testing.T) {
	e := NewEngine(Weights{Camera: 3, Keyboard: 1})
	reading := e.Fuse(sampleSet(map[signal.Kind]float64{
		signal.KindCamera:   1.0,
		signal.KindKeyboard: 0.0,
	}))

	if math.Abs(reading.Score-75) > 0.01 {
		t.Fatalf("expected 75 after normalization, got %.2f", reading.Score)
	}
}
