package ops

import (
	"context"
	"time"

	"github.com/agbru/tieraccel/internal/accel"
	"github.com/agbru/tieraccel/internal/operation"
)

// Outcome reports one Runner invocation.
type Outcome struct {
	// Name is the operation's name, "domain/type/operation".
	Name string
	Key  operation.Key
	// Size is the length of the generated input.
	Size int
	// Tier is the tier the dispatcher selected for the input.
	Tier accel.Tier
	// Duration is the wall time of the accelerated call.
	Duration time.Duration
	// Matched reports whether the accelerated result agreed with a direct
	// fallback run on the same input.
	Matched bool
}

// Runner drives one operation from a flat float64 input, for workloads,
// calibration and diagnostics. Runners for one operation must not be used
// from more than one goroutine at a time.
type Runner interface {
	// Name returns the operation's name, "domain/type/operation".
	Name() string
	// Key returns the operation key.
	Key() operation.Key
	// Run executes the accelerated operation on data and cross-checks it
	// against the fallback.
	Run(ctx context.Context, data []float64) (Outcome, error)
	// Profile returns the declared performance expectations.
	Profile() accel.Profile
}

// dispatcher is satisfied by both *accel.Accelerator and *accel.Hybrid.
type dispatcher[In, Out any] interface {
	Key() operation.Key
	DetermineTier(in In) accel.Tier
	Execute(ctx context.Context, in In) (Out, error)
	Fallback(ctx context.Context, in In) (Out, error)
	PerformanceProfile() accel.Profile
}

type runner[In, Out any] struct {
	d     dispatcher[In, Out]
	input func([]float64) In
	equal func(a, b Out) bool
}

func newRunner[In, Out any](d dispatcher[In, Out], input func([]float64) In, equal func(a, b Out) bool) Runner {
	return &runner[In, Out]{d: d, input: input, equal: equal}
}

func (r *runner[In, Out]) Name() string { return r.d.Key().String() }

func (r *runner[In, Out]) Key() operation.Key { return r.d.Key() }

func (r *runner[In, Out]) Profile() accel.Profile { return r.d.PerformanceProfile() }

func (r *runner[In, Out]) Run(ctx context.Context, data []float64) (Outcome, error) {
	in := r.input(data)
	res := Outcome{Name: r.Name(), Key: r.d.Key(), Size: len(data), Tier: r.d.DetermineTier(in)}

	start := time.Now()
	got, err := r.d.Execute(ctx, in)
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	want, err := r.d.Fallback(ctx, in)
	if err != nil {
		return res, err
	}
	res.Matched = r.equal(got, want)
	return res, nil
}

func identity(data []float64) []float64 { return data }
