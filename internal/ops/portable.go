package ops

import (
	"cmp"
	"math"
)

// Portable reference implementations. These define each operation's
// results; native kernels must agree with them up to floating-point
// tolerance.

func sumOf(x []float64) float64 {
	total := 0.0
	for _, v := range x {
		total += v
	}
	return total
}

func meanOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return sumOf(x) / float64(len(x))
}

// minOf and maxOf return NaN for empty input. NaN elements after the first
// never win a comparison.
func minOf(x []float64) float64 {
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

func maxOf(x []float64) float64 {
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

const insertionCutoff = 20

// sortedCopy returns x in ascending order, NaNs first. Short inputs use
// insertion sort, longer ones a top-down merge sort.
func sortedCopy(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	if len(out) < insertionCutoff {
		insertionSort(out)
		return out
	}
	buf := make([]float64, len(out))
	mergeSort(out, buf)
	return out
}

func insertionSort(a []float64) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && cmp.Less(v, a[j]) {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}

func mergeSort(a, buf []float64) {
	if len(a) < insertionCutoff {
		insertionSort(a)
		return
	}
	mid := len(a) / 2
	mergeSort(a[:mid], buf[:mid])
	mergeSort(a[mid:], buf[mid:])
	if !cmp.Less(a[mid], a[mid-1]) {
		return
	}
	copy(buf, a)
	i, j, k := 0, mid, 0
	for i < mid && j < len(a) {
		if cmp.Less(buf[j], buf[i]) {
			a[k] = buf[j]
			j++
		} else {
			a[k] = buf[i]
			i++
		}
		k++
	}
	for i < mid {
		a[k] = buf[i]
		i++
		k++
	}
	for j < len(a) {
		a[k] = buf[j]
		j++
		k++
	}
}

func affineOf(x []float64, scale, offset float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*scale + offset
	}
	return out
}

func filterAbove(x []float64, bound float64) []float64 {
	out := make([]float64, 0, len(x)/2)
	for _, v := range x {
		if v > bound {
			out = append(out, v)
		}
	}
	return out
}

// convolveDirect is the textbook full linear convolution.
func convolveDirect(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}

// nextPowerOfTwo returns the smallest power of two >= max(n, 2).
func nextPowerOfTwo(n int) int {
	p := 2
	for p < n {
		p <<= 1
	}
	return p
}

// padSignal zero-extends x to the next power of two.
func padSignal(x []float64) []float64 {
	out := make([]float64, nextPowerOfTwo(len(x)))
	copy(out, x)
	return out
}

// fftRecursive is the radix-2 decimation-in-time transform. len(x) must be
// a power of two.
func fftRecursive(x []complex128) []complex128 {
	n := len(x)
	if n == 1 {
		return []complex128{x[0]}
	}
	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}
	fe, fo := fftRecursive(even), fftRecursive(odd)

	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		sin, cos := math.Sincos(-2 * math.Pi * float64(k) / float64(n))
		t := complex(cos, sin) * fo[k]
		out[k] = fe[k] + t
		out[k+n/2] = fe[k] - t
	}
	return out
}

func dropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
