package signal

import (
	"context"
	"fmt"
	"log"
	"time"
)

// #region collector

// Collector owns the configured sources and produces one Sample per
// source per tick. A slow or failing source degrades to unavailable
// for that tick; it never stalls the loop.
type Collector struct {
	sources  []Source
	config   CollectorConfig
	timeouts map[Kind]int // consecutive timeout count per source
}

// NewCollector creates a collector over the given sources.
func NewCollector(sources []Source, config CollectorConfig) *Collector {
	return &Collector{
		sources:  sources,
		config:   config,
		timeouts: make(map[Kind]int),
	}
}

// #endregion collector

// #region acquire-release

// Acquire opens every source once. Failing sources are logged and kept;
// they report unavailable until they recover. Exclusive handles stay
// held until Release.
func (c *Collector) Acquire() error {
	for _, src := range c.sources {
		if err := src.Acquire(); err != nil {
			log.Printf("[SIGNAL] acquire %s: %v (will report unavailable)", src.Kind(), err)
		}
	}
	return nil
}

// Release closes every source. Called once at shutdown.
func (c *Collector) Release() {
	for _, src := range c.sources {
		if err := src.Release(); err != nil {
			log.Printf("[SIGNAL] release %s: %v", src.Kind(), err)
		}
	}
}

// #endregion acquire-release

// #region collect

// Collect samples every source under the per-source timeout and returns
// the latest sample per kind. Unavailable sources appear with OK=false.
func (c *Collector) Collect(ctx context.Context) map[Kind]Sample {
	now := time.Now()
	out := make(map[Kind]Sample, len(c.sources))

	for _, src := range c.sources {
		sample, err := c.sampleOne(ctx, src, now)
		if err != nil {
			c.timeouts[src.Kind()]++
			if c.timeouts[src.Kind()]%10 == 1 {
				log.Printf("[SIGNAL] %s unavailable (%d consecutive): %v",
					src.Kind(), c.timeouts[src.Kind()], err)
			}
			out[src.Kind()] = Unavailable(src.Kind(), now)
			continue
		}
		c.timeouts[src.Kind()] = 0
		out[src.Kind()] = sample
	}
	return out
}

// sampleOne runs a single source under the timeout budget.
func (c *Collector) sampleOne(ctx context.Context, src Source, now time.Time) (Sample, error) {
	sctx, cancel := context.WithTimeout(ctx, c.config.SampleTimeout)
	defer cancel()

	type result struct {
		value float64
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := src.Sample(sctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Sample{}, r.err
		}
		return Sample{Source: src.Kind(), Value: clamp01(r.value), OK: true, CapturedAt: now}, nil
	case <-sctx.Done():
		return Sample{}, fmt.Errorf("sample %s: %w", src.Kind(), sctx.Err())
	}
}

// #endregion collect

// #region helpers

// clamp01 restricts v to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
