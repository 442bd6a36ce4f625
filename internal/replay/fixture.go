package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"attentiond/internal/signal"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a recorded trace.
type Fixture struct {
	Description string         `json:"description"`
	Session     *FixtureSession `json:"session"`
	Ticks       []FixtureTick  `json:"ticks"`
}

// FixtureSession mirrors SessionSpec with JSON tags.
type FixtureSession struct {
	BlockName   string  `json:"block_name"`
	Category    string  `json:"category"`
	GoalMinutes float64 `json:"goal_minutes"`
	Threshold   float64 `json:"threshold"`
}

// FixtureTick mirrors Tick with JSON tags. Signal keys are the kind
// names; absent keys mean the source was unavailable that tick.
type FixtureTick struct {
	OffsetSeconds float64            `json:"offset_seconds"`
	Signals       map[string]float64 `json:"signals"`
}

// #endregion fixture-types

// #region load

// LoadFixture reads a JSON trace fixture from disk.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	return f, nil
}

// HarnessTicks converts the fixture's ticks into harness ticks.
func (f Fixture) HarnessTicks() []Tick {
	out := make([]Tick, len(f.Ticks))
	for i, ft := range f.Ticks {
		values := make(map[signal.Kind]float64, len(ft.Signals))
		for name, v := range ft.Signals {
			values[signal.Kind(name)] = v
		}
		out[i] = Tick{
			Offset: time.Duration(ft.OffsetSeconds * float64(time.Second)),
			Values: values,
		}
	}
	return out
}

// SessionSpec converts the fixture's session block, if present.
func (f Fixture) SessionSpec() *SessionSpec {
	if f.Session == nil {
		return nil
	}
	return &SessionSpec{
		BlockName: f.Session.BlockName,
		Category:  f.Session.Category,
		Goal:      time.Duration(f.Session.GoalMinutes * float64(time.Minute)),
		Threshold: f.Session.Threshold,
	}
}

// #endregion load
