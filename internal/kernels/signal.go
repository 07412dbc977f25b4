package kernels

import (
	"math"
	"math/bits"
)

// fft computes the discrete Fourier transform of a real signal whose length
// is a power of two (at least 2). The result interleaves real and imaginary
// parts: [re0, im0, re1, im1, ...].
func fft(args ...[]float64) ([]float64, error) {
	if err := arity(FFT, args, 1); err != nil {
		return nil, err
	}
	signal := args[0]
	n := len(signal)
	if n < 2 || n&(n-1) != 0 {
		return nil, ErrNotPowerOfTwo
	}

	re := make([]float64, n)
	im := make([]float64, n)
	shift := uint(bits.UintSize - bits.Len(uint(n-1)))
	for i, v := range signal {
		j := bits.Reverse(uint(i)) >> shift
		re[j] = v
	}

	// Iterative radix-2 butterflies.
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := -2 * math.Pi / float64(size)
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				wr, wi := math.Cos(step*float64(k)), math.Sin(step*float64(k))
				a, b := start+k, start+k+half
				tr := re[b]*wr - im[b]*wi
				ti := re[b]*wi + im[b]*wr
				re[b], im[b] = re[a]-tr, im[a]-ti
				re[a], im[a] = re[a]+tr, im[a]+ti
			}
		}
	}

	out := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		out[2*i] = re[i]
		out[2*i+1] = im[i]
	}
	return out, nil
}

// convolve returns the full linear convolution of two non-empty signals,
// of length len(a)+len(b)-1.
func convolve(args ...[]float64) ([]float64, error) {
	if err := arity(Convolve, args, 2); err != nil {
		return nil, err
	}
	a, b := args[0], args[1]
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([]float64, len(a)+len(b)-1)
	n := len(b) &^ 3
	for i, av := range a {
		row := out[i : i+len(b)]
		for j := 0; j < n; j += 4 {
			row[j] += av * b[j]
			row[j+1] += av * b[j+1]
			row[j+2] += av * b[j+2]
			row[j+3] += av * b[j+3]
		}
		for j := n; j < len(b); j++ {
			row[j] += av * b[j]
		}
	}
	return out, nil
}
