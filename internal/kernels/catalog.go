package kernels

import (
	"errors"
	"fmt"
	"sort"
)

// Entry point names.
const (
	Sum      = "numeric_sum_f64"
	Average  = "numeric_average_f64"
	Min      = "numeric_min_f64"
	Max      = "numeric_max_f64"
	Sort     = "specialized_sort_f64"
	FFT      = "fft_f64"
	Convolve = "convolve_f64"
	Affine   = "vector_affine_f64"
	FilterGT = "vector_filter_gt_f64"
)

var (
	// ErrArgCount is returned when a kernel receives the wrong number of
	// argument arrays.
	ErrArgCount = errors.New("kernels: wrong number of arguments")

	// ErrNotPowerOfTwo is returned by FFT for lengths that are not a power
	// of two of at least 2.
	ErrNotPowerOfTwo = errors.New("kernels: signal length must be a power of 2")

	// ErrEmptyInput is returned by kernels that have no defined result for
	// empty input.
	ErrEmptyInput = errors.New("kernels: empty input")
)

// KernelFn is one native entry point.
type KernelFn func(args ...[]float64) ([]float64, error)

// Catalog maps entry point names to kernels.
type Catalog map[string]KernelFn

// Default returns a new catalog containing every built-in kernel.
func Default() Catalog {
	return Catalog{
		Sum:      unary(sum),
		Average:  unary(average),
		Min:      unary(minimum),
		Max:      unary(maximum),
		Sort:     unarySlice(sortAscending),
		FFT:      fft,
		Convolve: convolve,
		Affine:   affine,
		FilterGT: filterGreater,
	}
}

// Names returns the registered entry point names, sorted.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func arity(name string, args [][]float64, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrArgCount, name, n, len(args))
	}
	return nil
}

func unary(fn func([]float64) float64) KernelFn {
	return func(args ...[]float64) ([]float64, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: want 1, got %d", ErrArgCount, len(args))
		}
		return []float64{fn(args[0])}, nil
	}
}

func unarySlice(fn func([]float64) []float64) KernelFn {
	return func(args ...[]float64) ([]float64, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: want 1, got %d", ErrArgCount, len(args))
		}
		return fn(args[0]), nil
	}
}
