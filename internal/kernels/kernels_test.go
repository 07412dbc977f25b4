package kernels

import (
	"encoding/binary"
	"errors"
	"math"
	"math/cmplx"
	"slices"
	"testing"
)

func call(t *testing.T, name string, args ...[]float64) []float64 {
	t.Helper()
	fn, ok := Default()[name]
	if !ok {
		t.Fatalf("kernel %q not registered", name)
	}
	out, err := fn(args...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out
}

func closeTo(a, b, tol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestCatalogNames(t *testing.T) {
	t.Parallel()
	want := []string{Affine, Convolve, FFT, Average, Max, Min, Sum, Sort, FilterGT}
	slices.Sort(want)
	if got := Default().Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestReductions(t *testing.T) {
	t.Parallel()
	data := []float64{3, -1, 4, 1, 5, 9, 2}
	tests := []struct {
		name  string
		input []float64
		want  float64
	}{
		{Sum, data, 23},
		{Sum, nil, 0},
		{Average, data, 23.0 / 7},
		{Average, nil, 0},
		{Min, data, -1},
		{Min, nil, math.NaN()},
		{Max, data, 9},
		{Max, []float64{}, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := call(t, tt.name, tt.input)
			if len(got) != 1 || !closeTo(got[0], tt.want, 1e-12) {
				t.Errorf("%s(%v) = %v, want [%v]", tt.name, tt.input, got, tt.want)
			}
		})
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	in := []float64{5, 1, 4, 2, 3}
	got := call(t, Sort, in)
	if !slices.Equal(got, []float64{1, 2, 3, 4, 5}) {
		t.Errorf("sorted = %v", got)
	}
	if !slices.Equal(in, []float64{5, 1, 4, 2, 3}) {
		t.Error("input was mutated")
	}
}

func TestAffineAndFilter(t *testing.T) {
	t.Parallel()
	data := []float64{1, 2, 3, 4, 5, 6}
	if got := call(t, Affine, data, []float64{2, 1}); !slices.Equal(got, []float64{3, 5, 7, 9, 11, 13}) {
		t.Errorf("affine = %v", got)
	}
	if got := call(t, FilterGT, data, []float64{3.5}); !slices.Equal(got, []float64{4, 5, 6}) {
		t.Errorf("filter = %v", got)
	}
}

func TestConvolve(t *testing.T) {
	t.Parallel()
	got := call(t, Convolve, []float64{1, 2, 3}, []float64{0, 1, 0.5})
	want := []float64{0, 1, 2.5, 4, 1.5}
	if !slices.Equal(got, want) {
		t.Errorf("convolve = %v, want %v", got, want)
	}
}

func TestFFTKnownValues(t *testing.T) {
	t.Parallel()
	got := call(t, FFT, []float64{1, 1, 1, 1})
	want := []float64{4, 0, 0, 0, 0, 0, 0, 0}
	for i := range want {
		if !closeTo(got[i], want[i], 1e-12) {
			t.Fatalf("fft = %v, want %v", got, want)
		}
	}
}

func TestKernelErrors(t *testing.T) {
	t.Parallel()
	c := Default()
	tests := []struct {
		name string
		args [][]float64
		want error
	}{
		{Sum, nil, ErrArgCount},
		{Sort, [][]float64{{1}, {2}}, ErrArgCount},
		{FFT, [][]float64{{1, 2, 3}}, ErrNotPowerOfTwo},
		{FFT, [][]float64{{1}}, ErrNotPowerOfTwo},
		{Convolve, [][]float64{{1}, {}}, ErrEmptyInput},
		{Convolve, [][]float64{{1}}, ErrArgCount},
		{Affine, [][]float64{{1}, {2}}, ErrArgCount},
		{FilterGT, [][]float64{{1}, {}}, ErrArgCount},
	}
	for _, tt := range tests {
		_, err := c[tt.name](tt.args...)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s(%v) error = %v, want %v", tt.name, tt.args, err, tt.want)
		}
	}
}

// decode turns fuzz bytes into a bounded slice of finite floats.
func decode(data []byte) []float64 {
	out := make([]float64, 0, len(data)/8)
	for len(data) >= 8 && len(out) < 4096 {
		bits := binary.LittleEndian.Uint64(data)
		data = data[8:]
		v := math.Float64frombits(bits)
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1e6 {
			v = float64(bits%2001) - 1000
		}
		out = append(out, v)
	}
	return out
}

func absSum(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += math.Abs(v)
	}
	return s
}

func naiveDFT(x []float64) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		var acc complex128
		for j, v := range x {
			acc += complex(v, 0) * cmplx.Exp(complex(0, -2*math.Pi*float64(k*j)/float64(n)))
		}
		out[k] = acc
	}
	return out
}

// FuzzKernelsVsReference compares each kernel against a direct scalar
// reference implementation for arbitrary finite inputs.
func FuzzKernelsVsReference(f *testing.F) {
	for _, size := range []int{0, 1, 3, 8, 64, 257} {
		f.Add(make([]byte, 8*size))
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		x := decode(data)
		c := Default()

		var s float64
		for _, v := range x {
			s += v
		}
		got, _ := c[Sum](x)
		if math.Abs(got[0]-s) > 1e-10*absSum(x)+1e-12 {
			t.Errorf("sum = %v, reference %v", got[0], s)
		}

		sorted, _ := c[Sort](x)
		if !slices.IsSorted(sorted) || len(sorted) != len(x) {
			t.Errorf("sort result not sorted: %v", sorted)
		}

		if len(x) > 0 {
			conv, err := c[Convolve](x, []float64{1})
			if err != nil || !slices.Equal(conv, x) {
				t.Errorf("convolve with unit impulse = %v, %v", conv, err)
			}
		}

		n := 1
		for n*2 <= len(x) && n < 64 {
			n *= 2
		}
		if n >= 2 {
			got, err := c[FFT](x[:n])
			if err != nil {
				t.Fatalf("fft: %v", err)
			}
			ref := naiveDFT(x[:n])
			tol := 1e-9*absSum(x[:n]) + 1e-9
			for k, want := range ref {
				if math.Abs(got[2*k]-real(want)) > tol || math.Abs(got[2*k+1]-imag(want)) > tol {
					t.Fatalf("fft[%d] = (%v, %v), reference %v", k, got[2*k], got[2*k+1], want)
				}
			}
		}
	})
}
