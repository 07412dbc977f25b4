package ops

import (
	"context"
	"fmt"

	"github.com/agbru/tieraccel/internal/accel"
	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/kernels"
	"github.com/agbru/tieraccel/internal/native"
	"github.com/agbru/tieraccel/internal/operation"
)

const (
	domainNumeric = "numeric"
	typeF64       = "f64"
)

// Operation keys of the numeric domain.
var (
	SumKey      = operation.New(domainNumeric, typeF64, "sum")
	MeanKey     = operation.New(domainNumeric, typeF64, "mean")
	MinKey      = operation.New(domainNumeric, typeF64, "min")
	MaxKey      = operation.New(domainNumeric, typeF64, "max")
	SortKey     = operation.New(domainNumeric, typeF64, "sort")
	AffineKey   = operation.New(domainNumeric, typeF64, "affine")
	FilterKey   = operation.New(domainNumeric, typeF64, "filter_gt")
	ConvolveKey = operation.New(domainNumeric, typeF64, "convolve")
)

// Size thresholds for the sort predicates.
const (
	SortHighValueSize   = 100_000
	SortConditionalSize = 1_000
)

// ConvolveHighValueWork is the len(signal)*len(kernel) product at which
// convolution always goes native.
const ConvolveHighValueWork = 1 << 20

// AffineInput is the input of the affine map: every element becomes
// Data[i]*Scale + Offset.
type AffineInput struct {
	Data   []float64
	Scale  float64
	Offset float64
}

// FilterInput is the input of the filter: elements strictly greater than
// Bound are kept, in order.
type FilterInput struct {
	Data  []float64
	Bound float64
}

// ConvolveInput is the input of the full linear convolution.
type ConvolveInput struct {
	Signal []float64
	Kernel []float64
}

func sliceLen(in []float64) int { return len(in) }

// reduction builds the strategy shared by the scalar reductions. They defer
// to the analyzer, which favors native execution for numeric inputs of at
// least small size.
func reduction(key operation.Key, entry string, fallback func([]float64) float64, profile accel.Profile) accel.Strategy[[]float64, float64] {
	return accel.Strategy[[]float64, float64]{
		Key:             key,
		Size:            sliceLen,
		DeferToAnalyzer: true,
		Native: func(ctx context.Context, mod native.Module, in []float64) (float64, error) {
			return native.CallScalar(ctx, mod, entry, in)
		},
		Fallback: func(_ context.Context, in []float64) (float64, error) {
			return fallback(in), nil
		},
		Equal:   scalarEqual,
		Profile: profile,
	}
}

// NewSum returns the accelerated sum.
func NewSum(rc *accel.RuntimeContext) (*accel.Accelerator[[]float64, float64], error) {
	return accel.New(rc, reduction(SumKey, kernels.Sum, sumOf,
		accel.Profile{EstimatedSpeedup: 2.5, EffectiveInputSize: 10_000}))
}

// NewMean returns the accelerated arithmetic mean. The mean of an empty
// slice is 0.
func NewMean(rc *accel.RuntimeContext) (*accel.Accelerator[[]float64, float64], error) {
	return accel.New(rc, reduction(MeanKey, kernels.Average, meanOf,
		accel.Profile{EstimatedSpeedup: 2.5, EffectiveInputSize: 10_000}))
}

// NewMin returns the accelerated minimum. The minimum of an empty slice is
// NaN.
func NewMin(rc *accel.RuntimeContext) (*accel.Accelerator[[]float64, float64], error) {
	return accel.New(rc, reduction(MinKey, kernels.Min, minOf,
		accel.Profile{EstimatedSpeedup: 1.8, EffectiveInputSize: 10_000}))
}

// NewMax returns the accelerated maximum. The maximum of an empty slice is
// NaN.
func NewMax(rc *accel.RuntimeContext) (*accel.Accelerator[[]float64, float64], error) {
	return accel.New(rc, reduction(MaxKey, kernels.Max, maxOf,
		accel.Profile{EstimatedSpeedup: 1.8, EffectiveInputSize: 10_000}))
}

// NewSort returns the accelerated ascending sort. The input is never
// modified; NaNs sort first.
func NewSort(rc *accel.RuntimeContext) (*accel.Accelerator[[]float64, []float64], error) {
	return accel.New(rc, accel.Strategy[[]float64, []float64]{
		Key:         SortKey,
		Size:        sliceLen,
		HighValue:   func(in []float64) bool { return len(in) >= SortHighValueSize },
		Conditional: func(in []float64) bool { return len(in) >= SortConditionalSize },
		Native: func(ctx context.Context, mod native.Module, in []float64) ([]float64, error) {
			out, err := native.Call(ctx, mod, kernels.Sort, in)
			if err != nil {
				return nil, err
			}
			if len(out) != len(in) {
				return nil, fmt.Errorf("%w: sort returned %d values for %d inputs", native.ErrMalformedResult, len(out), len(in))
			}
			return out, nil
		},
		Fallback: func(_ context.Context, in []float64) ([]float64, error) {
			return sortedCopy(in), nil
		},
		Equal:   sliceEqual,
		Profile: accel.Profile{EstimatedSpeedup: 3, EffectiveInputSize: 1_000, MemoryOverheadBytes: 8},
	})
}

// NewAffine returns the accelerated affine map. Tiering relies on the
// learned threshold alone.
func NewAffine(rc *accel.RuntimeContext) (*accel.Accelerator[AffineInput, []float64], error) {
	return accel.New(rc, accel.Strategy[AffineInput, []float64]{
		Key:  AffineKey,
		Size: func(in AffineInput) int { return len(in.Data) },
		Native: func(ctx context.Context, mod native.Module, in AffineInput) ([]float64, error) {
			return native.Call(ctx, mod, kernels.Affine, in.Data, []float64{in.Scale, in.Offset})
		},
		Fallback: func(_ context.Context, in AffineInput) ([]float64, error) {
			return affineOf(in.Data, in.Scale, in.Offset), nil
		},
		Equal:   sliceEqual,
		Profile: accel.Profile{EstimatedSpeedup: 1.5, EffectiveInputSize: 50_000, MemoryOverheadBytes: 8},
	})
}

// NewFilter returns the accelerated greater-than filter.
func NewFilter(rc *accel.RuntimeContext) (*accel.Accelerator[FilterInput, []float64], error) {
	return accel.New(rc, accel.Strategy[FilterInput, []float64]{
		Key:  FilterKey,
		Size: func(in FilterInput) int { return len(in.Data) },
		Native: func(ctx context.Context, mod native.Module, in FilterInput) ([]float64, error) {
			return native.Call(ctx, mod, kernels.FilterGT, in.Data, []float64{in.Bound})
		},
		Fallback: func(_ context.Context, in FilterInput) ([]float64, error) {
			return filterAbove(in.Data, in.Bound), nil
		},
		Equal:   sliceEqual,
		Profile: accel.Profile{EstimatedSpeedup: 1.3, EffectiveInputSize: 50_000, MemoryOverheadBytes: 8},
	})
}

// NewConvolve returns the accelerated full linear convolution. An empty
// signal or kernel is invalid input.
func NewConvolve(rc *accel.RuntimeContext) (*accel.Accelerator[ConvolveInput, []float64], error) {
	validate := func(in ConvolveInput) error {
		switch {
		case len(in.Signal) == 0:
			return apperrors.NewInvalidInputError(ConvolveKey.String(), "signal is empty")
		case len(in.Kernel) == 0:
			return apperrors.NewInvalidInputError(ConvolveKey.String(), "kernel is empty")
		}
		return nil
	}
	return accel.New(rc, accel.Strategy[ConvolveInput, []float64]{
		Key:       ConvolveKey,
		Feature:   native.FeatureSIMD,
		Size:      func(in ConvolveInput) int { return len(in.Signal) },
		HighValue: func(in ConvolveInput) bool { return len(in.Signal)*len(in.Kernel) >= ConvolveHighValueWork },
		Validate:  validate,
		Native: func(ctx context.Context, mod native.Module, in ConvolveInput) ([]float64, error) {
			out, err := native.Call(ctx, mod, kernels.Convolve, in.Signal, in.Kernel)
			if err != nil {
				return nil, err
			}
			if want := len(in.Signal) + len(in.Kernel) - 1; len(out) != want {
				return nil, fmt.Errorf("%w: convolve returned %d values, want %d", native.ErrMalformedResult, len(out), want)
			}
			return out, nil
		},
		Fallback: func(_ context.Context, in ConvolveInput) ([]float64, error) {
			if err := validate(in); err != nil {
				return nil, err
			}
			return convolveDirect(in.Signal, in.Kernel), nil
		},
		Equal:   sliceEqual,
		Profile: accel.Profile{EstimatedSpeedup: 4, EffectiveInputSize: 4_096, MemoryOverheadBytes: 16},
	})
}
