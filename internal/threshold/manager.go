package threshold

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/tieraccel/internal/operation"
)

// Manager owns the learned threshold and sample history for one operation
// key. All methods are safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	logger zerolog.Logger

	key operation.Key
	cfg Config

	// current is kept as a float so that small learning-rate steps
	// accumulate instead of being truncated away.
	current float64
	samples *SampleStore

	recorded       int
	adjustments    int
	lastAdjustment time.Time
}

// Stats is a point-in-time view of a Manager.
type Stats struct {
	Key              operation.Key
	Threshold        int
	InitialThreshold int
	SamplesRetained  int
	SamplesRecorded  int
	Adjustments      int
	LastAdjustment   time.Time
	Config           Config
}

// ─────────────────────────────────────────────────────────────────────────────
// Constructor and Configuration
// ─────────────────────────────────────────────────────────────────────────────

// NewManager creates a manager for key. The threshold starts at
// cfg.MinInputSize. Invalid configurations are rejected.
func NewManager(key operation.Key, cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		logger:  zerolog.Nop(),
		key:     key,
		cfg:     cfg,
		current: float64(cfg.MinInputSize),
		samples: NewSampleStore(cfg.MaxSamples),
	}, nil
}

// SetLogger configures the logger for threshold adjustment events.
func (m *Manager) SetLogger(l zerolog.Logger) {
	m.mu.Lock()
	m.logger = l
	m.mu.Unlock()
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// ─────────────────────────────────────────────────────────────────────────────
// Sample Recording
// ─────────────────────────────────────────────────────────────────────────────

// RecordSample stores s and, when adaptation is enabled and the sample's
// speedup is defined, moves the threshold toward s.InputSize:
//
//   - speedup >= MinSpeedupRatio and size < threshold: the threshold drops.
//   - speedup <  MinSpeedupRatio and size >= threshold: the threshold rises.
//
// Each step covers LearningRate of the gap and the result is clamped to
// [MinInputSize, MaxInputSize]. It reports whether the threshold moved.
func (m *Manager) RecordSample(s Sample) bool {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples.Add(s)
	m.recorded++

	if !m.cfg.AdaptiveEnabled {
		return false
	}
	speedup := s.Speedup()
	if math.IsNaN(speedup) {
		return false
	}

	size := float64(s.InputSize)
	old := m.current
	next := old
	switch {
	case speedup >= m.cfg.MinSpeedupRatio && size < old:
		next = old - m.cfg.LearningRate*(old-size)
	case speedup < m.cfg.MinSpeedupRatio && size >= old:
		next = old - m.cfg.LearningRate*(old-size)
	default:
		return false
	}
	next = m.clamp(next)
	if next == old {
		return false
	}

	m.current = next
	m.adjustments++
	m.lastAdjustment = s.Timestamp
	m.logger.Debug().
		Str("operation", m.key.String()).
		Int("input_size", s.InputSize).
		Float64("speedup", speedup).
		Float64("threshold_old", old).
		Float64("threshold_new", next).
		Msg("threshold adjusted")
	return true
}

func (m *Manager) clamp(v float64) float64 {
	return math.Min(math.Max(v, float64(m.cfg.MinInputSize)), float64(m.cfg.MaxInputSize))
}

// ─────────────────────────────────────────────────────────────────────────────
// Threshold Access
// ─────────────────────────────────────────────────────────────────────────────

// Threshold returns the current threshold rounded to the nearest size.
func (m *Manager) Threshold() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int(math.Round(m.current))
}

// ThresholdExact returns the unrounded learned threshold.
func (m *Manager) ThresholdExact() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Seed sets the current threshold, clamped to the configured bounds. It is
// used to restore a calibrated threshold; samples are left untouched.
func (m *Manager) Seed(threshold int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.clamp(float64(threshold))
}

// Samples returns the retained samples, oldest first.
func (m *Manager) Samples() []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.samples.Samples()
}

// ─────────────────────────────────────────────────────────────────────────────
// Statistics and Reporting
// ─────────────────────────────────────────────────────────────────────────────

// Stats returns current statistics about the manager.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		Key:              m.key,
		Threshold:        int(math.Round(m.current)),
		InitialThreshold: m.cfg.MinInputSize,
		SamplesRetained:  m.samples.Len(),
		SamplesRecorded:  m.recorded,
		Adjustments:      m.adjustments,
		LastAdjustment:   m.lastAdjustment,
		Config:           m.cfg,
	}
}

// Reset clears all samples and restores the initial threshold.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = float64(m.cfg.MinInputSize)
	m.samples.Reset()
	m.recorded = 0
	m.adjustments = 0
	m.lastAdjustment = time.Time{}
}
