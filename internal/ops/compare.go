package ops

import (
	"math"
	"math/cmplx"
)

// relTolerance bounds the disagreement accepted between the native and
// portable paths, relative to the magnitude of the compared values.
const relTolerance = 1e-9

func closeTo(a, b, scale float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if a == b {
		return true
	}
	return math.Abs(a-b) <= relTolerance*math.Max(1, scale)
}

func scalarEqual(a, b float64) bool {
	return closeTo(a, b, math.Max(math.Abs(a), math.Abs(b)))
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > m && !math.IsInf(a, 0) {
			m = a
		}
	}
	return m
}

func sliceEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	scale := math.Max(maxAbs(a), maxAbs(b))
	for i := range a {
		if !closeTo(a[i], b[i], scale) {
			return false
		}
	}
	return true
}

func spectrumEqual(a, b []complex128) bool {
	if len(a) != len(b) {
		return false
	}
	scale := 0.0
	for i := range a {
		scale = math.Max(scale, math.Max(cmplx.Abs(a[i]), cmplx.Abs(b[i])))
	}
	for i := range a {
		if !closeTo(real(a[i]), real(b[i]), scale) || !closeTo(imag(a[i]), imag(b[i]), scale) {
			return false
		}
	}
	return true
}
