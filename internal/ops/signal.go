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

// FFTKey identifies the spectral transform.
var FFTKey = operation.New("signal", typeF64, "fft")

// Size thresholds for the FFT predicates.
const (
	FFTHighValueSize   = 4_096
	FFTConditionalSize = 256
)

// FFT is the accelerated discrete Fourier transform of a real signal. The
// pipeline zero-pads the signal to a power of two, transforms it natively,
// and unpacks the interleaved result.
type FFT = accel.Hybrid[[]float64, []float64, []float64, []complex128]

// NewFFT returns the accelerated FFT. Signals are zero-padded to the next
// power of two (at least 2), so the spectrum has that many bins. An empty
// signal is invalid input.
func NewFFT(rc *accel.RuntimeContext) (*FFT, error) {
	validate := func(in []float64) error {
		if len(in) == 0 {
			return apperrors.NewInvalidInputError(FFTKey.String(), "signal is empty")
		}
		return nil
	}
	return accel.NewHybrid(rc, accel.HybridStrategy[[]float64, []float64, []float64, []complex128]{
		Key:         FFTKey,
		Feature:     native.FeatureSIMD,
		Size:        sliceLen,
		HighValue:   func(in []float64) bool { return len(in) >= FFTHighValueSize },
		Conditional: func(in []float64) bool { return len(in) >= FFTConditionalSize },
		Validate:    validate,
		Preprocess: func(_ context.Context, in []float64) ([]float64, error) {
			return padSignal(in), nil
		},
		Core: func(ctx context.Context, mod native.Module, padded []float64) ([]float64, error) {
			out, err := native.Call(ctx, mod, kernels.FFT, padded)
			if err != nil {
				return nil, err
			}
			if len(out) != 2*len(padded) {
				return nil, fmt.Errorf("%w: fft returned %d values for %d samples", native.ErrMalformedResult, len(out), len(padded))
			}
			return out, nil
		},
		Postprocess: func(_ context.Context, interleaved []float64) ([]complex128, error) {
			return deinterleave(interleaved)
		},
		Fallback: func(_ context.Context, in []float64) ([]complex128, error) {
			if err := validate(in); err != nil {
				return nil, err
			}
			padded := padSignal(in)
			x := make([]complex128, len(padded))
			for i, v := range padded {
				x[i] = complex(v, 0)
			}
			return fftRecursive(x), nil
		},
		Equal:   spectrumEqual,
		Profile: accel.Profile{EstimatedSpeedup: 5, EffectiveInputSize: 1_024, MemoryOverheadBytes: 32},
	})
}

func deinterleave(x []float64) ([]complex128, error) {
	if len(x)%2 != 0 {
		return nil, fmt.Errorf("%w: interleaved spectrum has odd length %d", native.ErrMalformedResult, len(x))
	}
	out := make([]complex128, len(x)/2)
	for i := range out {
		out[i] = complex(x[2*i], x[2*i+1])
	}
	return out, nil
}
