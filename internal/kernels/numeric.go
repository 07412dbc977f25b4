package kernels

import (
	"fmt"
	"math"
	"slices"
)

// sum accumulates into four independent lanes to break the dependency chain
// on a single accumulator.
func sum(x []float64) float64 {
	var s0, s1, s2, s3 float64
	n := len(x) &^ 3
	for i := 0; i < n; i += 4 {
		s0 += x[i]
		s1 += x[i+1]
		s2 += x[i+2]
		s3 += x[i+3]
	}
	for i := n; i < len(x); i++ {
		s0 += x[i]
	}
	return (s0 + s1) + (s2 + s3)
}

func average(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return sum(x) / float64(len(x))
}

// minimum and maximum return NaN for empty input. NaN elements are skipped
// by the comparisons, matching a sequential scan seeded with x[0].
func minimum(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	m := x[0]
	for _, v := range x[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maximum(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// sortAscending returns a sorted copy. NaNs sort first.
func sortAscending(x []float64) []float64 {
	out := slices.Clone(x)
	slices.Sort(out)
	return out
}

// affine computes data*scale + offset. params is [scale, offset].
func affine(args ...[]float64) ([]float64, error) {
	if err := arity(Affine, args, 2); err != nil {
		return nil, err
	}
	data, params := args[0], args[1]
	if len(params) != 2 {
		return nil, fmt.Errorf("%w: %s params are [scale, offset], got %d values", ErrArgCount, Affine, len(params))
	}
	scale, offset := params[0], params[1]
	out := make([]float64, len(data))
	n := len(data) &^ 3
	for i := 0; i < n; i += 4 {
		out[i] = data[i]*scale + offset
		out[i+1] = data[i+1]*scale + offset
		out[i+2] = data[i+2]*scale + offset
		out[i+3] = data[i+3]*scale + offset
	}
	for i := n; i < len(data); i++ {
		out[i] = data[i]*scale + offset
	}
	return out, nil
}

// filterGreater keeps the elements strictly greater than params[0].
func filterGreater(args ...[]float64) ([]float64, error) {
	if err := arity(FilterGT, args, 2); err != nil {
		return nil, err
	}
	data, params := args[0], args[1]
	if len(params) != 1 {
		return nil, fmt.Errorf("%w: %s params are [bound], got %d values", ErrArgCount, FilterGT, len(params))
	}
	bound := params[0]
	count := 0
	for _, v := range data {
		if v > bound {
			count++
		}
	}
	out := make([]float64, 0, count)
	for _, v := range data {
		if v > bound {
			out = append(out, v)
		}
	}
	return out, nil
}
