package threshold

import (
	"fmt"

	apperrors "github.com/agbru/tieraccel/internal/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Threshold Configuration
// ─────────────────────────────────────────────────────────────────────────────

const (
	// DefaultMinInputSize is the lower clamp and initial threshold.
	DefaultMinInputSize = 1000

	// DefaultMaxInputSize is the upper clamp of the threshold.
	DefaultMaxInputSize = 100000

	// DefaultMinSpeedupRatio is the fallback/native time ratio at which the
	// native path is considered to pay off.
	DefaultMinSpeedupRatio = 1.2

	// DefaultMaxSamples is the sample history kept per operation.
	DefaultMaxSamples = 20

	// DefaultLearningRate is the fraction of the gap to a sample's size
	// covered by one adjustment.
	DefaultLearningRate = 0.1
)

// Config parameterizes one Manager. It is fixed at construction; the only
// mutable learned state is the manager's current threshold.
type Config struct {
	MinInputSize    int     `yaml:"min_input_size"`
	MaxInputSize    int     `yaml:"max_input_size"`
	MinSpeedupRatio float64 `yaml:"min_speedup_ratio"`
	MaxSamples      int     `yaml:"max_samples"`
	LearningRate    float64 `yaml:"learning_rate"`
	AdaptiveEnabled bool    `yaml:"adaptive_enabled"`
}

// DefaultConfig returns the standard adaptive configuration.
func DefaultConfig() Config {
	return Config{
		MinInputSize:    DefaultMinInputSize,
		MaxInputSize:    DefaultMaxInputSize,
		MinSpeedupRatio: DefaultMinSpeedupRatio,
		MaxSamples:      DefaultMaxSamples,
		LearningRate:    DefaultLearningRate,
		AdaptiveEnabled: true,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	switch {
	case c.MinInputSize <= 0:
		return apperrors.ValidationError{Field: "MinInputSize", Message: fmt.Sprintf("must be positive, got %d", c.MinInputSize)}
	case c.MaxInputSize < c.MinInputSize:
		return apperrors.ValidationError{Field: "MaxInputSize", Message: fmt.Sprintf("must be >= MinInputSize (%d), got %d", c.MinInputSize, c.MaxInputSize)}
	case c.MinSpeedupRatio <= 0:
		return apperrors.ValidationError{Field: "MinSpeedupRatio", Message: fmt.Sprintf("must be positive, got %g", c.MinSpeedupRatio)}
	case c.MaxSamples <= 0:
		return apperrors.ValidationError{Field: "MaxSamples", Message: fmt.Sprintf("must be positive, got %d", c.MaxSamples)}
	case c.LearningRate <= 0 || c.LearningRate > 1:
		return apperrors.ValidationError{Field: "LearningRate", Message: fmt.Sprintf("must be in (0, 1], got %g", c.LearningRate)}
	}
	return nil
}
