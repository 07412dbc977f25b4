package metrics

import (
	"math"
	"sync"
)

// Implementation identifies which path served a call.
type Implementation int

const (
	Native Implementation = iota
	Fallback
)

func (i Implementation) String() string {
	if i == Native {
		return "native"
	}
	return "fallback"
}

// PerformanceMetrics is the aggregate view of one operation's executions.
type PerformanceMetrics struct {
	TotalExecutions    int64   `json:"total_executions"`
	NativeExecutions   int64   `json:"native_executions"`
	FallbackExecutions int64   `json:"fallback_executions"`
	SampledExecutions  int64   `json:"sampled_executions"`
	AvgNativeTimeMs    float64 `json:"avg_native_time_ms"`
	AvgFallbackTimeMs  float64 `json:"avg_fallback_time_ms"`
	AvgSpeedup         float64 `json:"avg_speedup"`
	MinSpeedup         float64 `json:"min_speedup"`
	MaxSpeedup         float64 `json:"max_speedup"`
	TotalTimeSavedMs   float64 `json:"total_time_saved_ms"`
}

// Counter accumulates PerformanceMetrics for a single operation. It is safe
// for concurrent use.
type Counter struct {
	mu sync.Mutex

	total, native, fallback, sampled int64

	nativeTimeSum   float64
	nativeTimeN     int64
	fallbackTimeSum float64
	fallbackTimeN   int64

	speedupSum float64
	speedupN   int64
	minSpeedup float64
	maxSpeedup float64

	timeSaved float64
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Record counts one execution served by used that took timeMs. It carries
// no paired timing, so speedup statistics are untouched.
func (c *Counter) Record(used Implementation, timeMs float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	c.observe(used, timeMs)
}

// RecordSampled counts one execution served by used for which both paths
// were timed. It updates the speedup statistics with fallbackMs/nativeMs
// and adds max(0, fallbackMs-nativeMs) to the time saved. Pairs whose native
// time is not positive contribute to time saved only.
func (c *Counter) RecordSampled(used Implementation, nativeMs, fallbackMs float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	c.sampled++
	if used == Native {
		c.native++
	} else {
		c.fallback++
	}
	c.nativeTimeSum += nativeMs
	c.nativeTimeN++
	c.fallbackTimeSum += fallbackMs
	c.fallbackTimeN++
	c.timeSaved += math.Max(0, fallbackMs-nativeMs)

	if nativeMs <= 0 {
		return
	}
	speedup := fallbackMs / nativeMs
	if c.speedupN == 0 || speedup < c.minSpeedup {
		c.minSpeedup = speedup
	}
	if c.speedupN == 0 || speedup > c.maxSpeedup {
		c.maxSpeedup = speedup
	}
	c.speedupSum += speedup
	c.speedupN++
}

func (c *Counter) observe(used Implementation, timeMs float64) {
	if used == Native {
		c.native++
		c.nativeTimeSum += timeMs
		c.nativeTimeN++
		return
	}
	c.fallback++
	c.fallbackTimeSum += timeMs
	c.fallbackTimeN++
}

// Snapshot returns the current aggregates.
func (c *Counter) Snapshot() PerformanceMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := PerformanceMetrics{
		TotalExecutions:    c.total,
		NativeExecutions:   c.native,
		FallbackExecutions: c.fallback,
		SampledExecutions:  c.sampled,
		MinSpeedup:         c.minSpeedup,
		MaxSpeedup:         c.maxSpeedup,
		TotalTimeSavedMs:   c.timeSaved,
	}
	if c.nativeTimeN > 0 {
		m.AvgNativeTimeMs = c.nativeTimeSum / float64(c.nativeTimeN)
	}
	if c.fallbackTimeN > 0 {
		m.AvgFallbackTimeMs = c.fallbackTimeSum / float64(c.fallbackTimeN)
	}
	if c.speedupN > 0 {
		m.AvgSpeedup = c.speedupSum / float64(c.speedupN)
	}
	return m
}

// Reset clears every aggregate.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total, c.native, c.fallback, c.sampled = 0, 0, 0, 0
	c.nativeTimeSum, c.nativeTimeN = 0, 0
	c.fallbackTimeSum, c.fallbackTimeN = 0, 0
	c.speedupSum, c.speedupN = 0, 0
	c.minSpeedup, c.maxSpeedup = 0, 0
	c.timeSaved = 0
}
