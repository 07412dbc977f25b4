//go:generate mockgen -destination=mocks/mock_native.go -package=mocks github.com/agbru/tieraccel/internal/native Runtime,Module

package native

import (
	"context"
	"errors"
	"fmt"
)

// Feature names a capability that an operation may require before its
// native path is attempted.
type Feature string

const (
	FeatureSIMD    Feature = "simd"
	FeatureAVX2    Feature = "avx2"
	FeatureAVX512  Feature = "avx512"
	FeatureNEON    Feature = "neon"
	FeatureFMA     Feature = "fma"
	FeatureThreads Feature = "threads"
)

var (
	// ErrUnavailable reports that the runtime resolved to no module.
	ErrUnavailable = errors.New("native: module unavailable")

	// ErrEntryPointMissing reports that a module does not export the
	// requested entry point.
	ErrEntryPointMissing = errors.New("native: entry point missing")

	// ErrMalformedResult reports that an entry point returned data that
	// cannot be converted back to host values.
	ErrMalformedResult = errors.New("native: malformed result")
)

// EntryPoint is one callable native function. Arguments and results are
// flat float64 arrays.
type EntryPoint func(ctx context.Context, args ...[]float64) ([]float64, error)

// Module is a loaded native module.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// Lookup resolves an entry point by name.
	Lookup(name string) (EntryPoint, bool)
	// Close releases the module's resources.
	Close(ctx context.Context) error
}

// Runtime loads native modules and answers capability probes.
type Runtime interface {
	// IsFeatureSupported reports whether the host can run code that
	// requires f.
	IsFeatureSupported(f Feature) bool
	// LoadModule loads the module. A nil Module with a nil error means
	// native execution is unavailable on this host.
	LoadModule(ctx context.Context) (Module, error)
}

// Call resolves name in m and invokes it, mapping a missing entry point to
// ErrEntryPointMissing.
func Call(ctx context.Context, m Module, name string, args ...[]float64) ([]float64, error) {
	if m == nil {
		return nil, ErrUnavailable
	}
	fn, ok := m.Lookup(name)
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrEntryPointMissing, name, m.Name())
	}
	return fn(ctx, args...)
}

// CallScalar invokes a reduction entry point and unwraps its one-element
// result.
func CallScalar(ctx context.Context, m Module, name string, args ...[]float64) (float64, error) {
	out, err := Call(ctx, m, name, args...)
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("%w: %s returned %d values, want 1", ErrMalformedResult, name, len(out))
	}
	return out[0], nil
}

type unavailableRuntime struct{}

// Unavailable returns a runtime that never provides a module.
func Unavailable() Runtime { return unavailableRuntime{} }

func (unavailableRuntime) IsFeatureSupported(Feature) bool { return false }

func (unavailableRuntime) LoadModule(context.Context) (Module, error) { return nil, nil }
