package classify

import (
	"time"

	"attentiond/internal/fusion"
)

// #region classifier

// Classifier maps composite readings to dwell-confirmed engagement
// states and tracks the short-horizon score trend.
type Classifier struct {
	config  Config
	history []float64 // bounded FIFO, oldest first
}

// NewClassifier creates a classifier with the given configuration.
func NewClassifier(config Config) *Classifier {
	return &Classifier{
		config:  config,
		history: make([]float64, 0, config.HistoryCapacity),
	}
}

// NewRecord returns the startup record for this classifier's config.
func (c *Classifier) NewRecord(now time.Time) StateRecord {
	return NewStateRecord(now, c.config)
}

// #endregion classifier

// #region classify

// Classify advances the state record by one reading. A candidate state
// that disagrees with the current one is committed only after it
// persists for MinDwell; one-tick outliers never flip the state.
// Returns the new record and whether a transition was committed.
func (c *Classifier) Classify(reading fusion.CompositeReading, rec StateRecord, now time.Time) (StateRecord, bool) {
	score := clampScore(reading.Score)
	c.push(score)

	candidate := c.bandFor(score)

	if candidate == rec.Current {
		// Agreement clears any pending candidate and grows confidence
		// with sustained dwell. Never decreases while state holds.
		rec.Pending = ""
		rec.PendingSince = time.Time{}
		dwell := now.Sub(rec.EnteredAt)
		conf := c.config.ConfidenceBase + dwell.Seconds()/c.config.ConfidenceRamp.Seconds()*(c.config.ConfidenceCap-c.config.ConfidenceBase)
		if conf > c.config.ConfidenceCap {
			conf = c.config.ConfidenceCap
		}
		if conf > rec.Confidence {
			rec.Confidence = conf
		}
		return rec, false
	}

	if candidate != rec.Pending {
		// Fresh disagreement: start the dwell clock.
		rec.Pending = candidate
		rec.PendingSince = now
		return rec, false
	}

	if now.Sub(rec.PendingSince) < c.config.MinDwell {
		// Still accumulating dwell.
		return rec, false
	}

	// Dwell satisfied: commit the transition and reset confidence.
	rec.Current = candidate
	rec.EnteredAt = now
	rec.Pending = ""
	rec.PendingSince = time.Time{}
	rec.Confidence = c.config.ConfidenceBase
	return rec, true
}

// bandFor maps a clamped score to its configured band.
func (c *Classifier) bandFor(score float64) State {
	switch {
	case score >= c.config.Bands.Focused:
		return StateFocused
	case score >= c.config.Bands.Active:
		return StateActive
	case score >= c.config.Bands.Distracted:
		return StateDistracted
	default:
		return StateInactive
	}
}

// #endregion classify

// #region trend

// Trend compares the mean of the last TrendWindow scores to the mean of
// the preceding TrendWindow. Positive means improving. Advisory only;
// never drives a transition. Returns 0 until enough history exists.
func (c *Classifier) Trend() float64 {
	n := c.config.TrendWindow
	if len(c.history) < 2*n {
		return 0
	}
	recent := mean(c.history[len(c.history)-n:])
	older := mean(c.history[len(c.history)-2*n : len(c.history)-n])
	return recent - older
}

// #endregion trend

// #region recommendations

// Recommendations derives advisory hints from the committed state and
// trend. Purely informational; the gate never consults these.
func Recommendations(state State, trend float64) []string {
	switch state {
	case StateFocused:
		if trend < -5 {
			return []string{"Focus is declining; consider a short break."}
		}
		return nil
	case StateActive:
		return []string{"Good focus level; keep the momentum."}
	case StateDistracted:
		return []string{
			"Distraction detected; close unrelated tabs or apps.",
			"Consider enabling do-not-disturb.",
		}
	default:
		return []string{
			"No activity detected; return to the session or take a proper break.",
		}
	}
}

// #endregion recommendations

// #region helpers

// push appends a score to the bounded history, evicting the oldest.
func (c *Classifier) push(score float64) {
	if len(c.history) == c.config.HistoryCapacity {
		copy(c.history, c.history[1:])
		c.history = c.history[:len(c.history)-1]
	}
	c.history = append(c.history, score)
}

// clampScore restricts a composite score to [0, 100]. The classifier
// never fails on malformed input.
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// #endregion helpers
