package ops

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agbru/tieraccel/internal/accel"
)

// Fixed parameters applied when operations are driven from a flat input.
const (
	RunnerAffineScale  = 2.0
	RunnerAffineOffset = 1.0
	RunnerFilterBound  = 0.0
)

// RunnerConvolveKernel is the 5-tap binomial smoothing kernel used when
// convolution is driven from a flat input.
var RunnerConvolveKernel = []float64{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}

// Factory holds Runners by name.
type Factory struct {
	mu      sync.RWMutex
	runners map[string]Runner
}

// NewFactory returns an empty factory.
func NewFactory() *Factory {
	return &Factory{runners: make(map[string]Runner)}
}

// NewDefaultFactory returns a factory holding every built-in operation,
// dispatching through rc. A nil rc selects the process default.
func NewDefaultFactory(rc *accel.RuntimeContext) (*Factory, error) {
	f := NewFactory()
	builders := []func(*accel.RuntimeContext) (Runner, error){
		reductionRunner(NewSum),
		reductionRunner(NewMean),
		reductionRunner(NewMin),
		reductionRunner(NewMax),
		func(rc *accel.RuntimeContext) (Runner, error) {
			a, err := NewSort(rc)
			if err != nil {
				return nil, err
			}
			return newRunner(a, identity, sliceEqual), nil
		},
		func(rc *accel.RuntimeContext) (Runner, error) {
			a, err := NewAffine(rc)
			if err != nil {
				return nil, err
			}
			return newRunner(a, func(data []float64) AffineInput {
				return AffineInput{Data: data, Scale: RunnerAffineScale, Offset: RunnerAffineOffset}
			}, sliceEqual), nil
		},
		func(rc *accel.RuntimeContext) (Runner, error) {
			a, err := NewFilter(rc)
			if err != nil {
				return nil, err
			}
			return newRunner(a, func(data []float64) FilterInput {
				return FilterInput{Data: data, Bound: RunnerFilterBound}
			}, sliceEqual), nil
		},
		func(rc *accel.RuntimeContext) (Runner, error) {
			a, err := NewConvolve(rc)
			if err != nil {
				return nil, err
			}
			return newRunner(a, func(data []float64) ConvolveInput {
				return ConvolveInput{Signal: data, Kernel: RunnerConvolveKernel}
			}, sliceEqual), nil
		},
		func(rc *accel.RuntimeContext) (Runner, error) {
			h, err := NewFFT(rc)
			if err != nil {
				return nil, err
			}
			return newRunner(h, identity, spectrumEqual), nil
		},
		func(rc *accel.RuntimeContext) (Runner, error) {
			h, err := NewDescribe(rc)
			if err != nil {
				return nil, err
			}
			return newRunner(h, identity, summaryEqual), nil
		},
	}
	for _, build := range builders {
		r, err := build(rc)
		if err != nil {
			return nil, err
		}
		if err := f.Register(r); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func reductionRunner(build func(*accel.RuntimeContext) (*accel.Accelerator[[]float64, float64], error)) func(*accel.RuntimeContext) (Runner, error) {
	return func(rc *accel.RuntimeContext) (Runner, error) {
		a, err := build(rc)
		if err != nil {
			return nil, err
		}
		return newRunner(a, identity, scalarEqual), nil
	}
}

// Register adds r under its name. Names must be unique.
func (f *Factory) Register(r Runner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.runners[r.Name()]; exists {
		return fmt.Errorf("operation %q is already registered", r.Name())
	}
	f.runners[r.Name()] = r
	return nil
}

// List returns the registered names in sorted order.
func (f *Factory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.runners))
	for name := range f.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the runner registered under name.
func (f *Factory) Get(name string) (Runner, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, ok := f.runners[name]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", name)
	}
	return r, nil
}

// GetAll returns every runner, sorted by name.
func (f *Factory) GetAll() []Runner {
	names := f.List()
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Runner, 0, len(names))
	for _, name := range names {
		out = append(out, f.runners[name])
	}
	return out
}
