package ops

import (
	"context"
	"fmt"
	"math"

	"github.com/agbru/tieraccel/internal/accel"
	"github.com/agbru/tieraccel/internal/kernels"
	"github.com/agbru/tieraccel/internal/native"
	"github.com/agbru/tieraccel/internal/operation"
)

// DescribeKey identifies the descriptive-statistics pipeline.
var DescribeKey = operation.New("stats", typeF64, "describe")

// DescribeConditionalSize is the size from which describe may go native.
const DescribeConditionalSize = 1_000

// Summary describes the non-NaN values of a sample. With no such values
// Count is 0 and every other field is NaN.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Describe is the accelerated summary statistics pipeline: drop NaNs, sort
// natively, then read the statistics off the sorted values.
type Describe = accel.Hybrid[[]float64, []float64, []float64, Summary]

// NewDescribe returns the accelerated describe operation.
func NewDescribe(rc *accel.RuntimeContext) (*Describe, error) {
	return accel.NewHybrid(rc, accel.HybridStrategy[[]float64, []float64, []float64, Summary]{
		Key:         DescribeKey,
		Size:        sliceLen,
		Conditional: func(in []float64) bool { return len(in) >= DescribeConditionalSize },
		Preprocess: func(_ context.Context, in []float64) ([]float64, error) {
			return dropNaN(in), nil
		},
		Core: func(ctx context.Context, mod native.Module, clean []float64) ([]float64, error) {
			out, err := native.Call(ctx, mod, kernels.Sort, clean)
			if err != nil {
				return nil, err
			}
			if len(out) != len(clean) {
				return nil, fmt.Errorf("%w: sort returned %d values for %d inputs", native.ErrMalformedResult, len(out), len(clean))
			}
			return out, nil
		},
		Postprocess: func(_ context.Context, sorted []float64) (Summary, error) {
			return summarize(sorted), nil
		},
		Fallback: func(_ context.Context, in []float64) (Summary, error) {
			return summarize(sortedCopy(dropNaN(in))), nil
		},
		Equal:   summaryEqual,
		Profile: accel.Profile{EstimatedSpeedup: 2, EffectiveInputSize: 5_000, MemoryOverheadBytes: 16},
	})
}

// summarize expects sorted values without NaNs.
func summarize(sorted []float64) Summary {
	n := len(sorted)
	if n == 0 {
		nan := math.NaN()
		return Summary{Min: nan, Max: nan, Mean: nan, Median: nan}
	}
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return Summary{
		Count:  n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   sumOf(sorted) / float64(n),
		Median: median,
	}
}

func summaryEqual(a, b Summary) bool {
	return a.Count == b.Count &&
		scalarEqual(a.Min, b.Min) &&
		scalarEqual(a.Max, b.Max) &&
		scalarEqual(a.Mean, b.Mean) &&
		scalarEqual(a.Median, b.Median)
}
