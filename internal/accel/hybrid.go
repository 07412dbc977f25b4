package accel

import (
	"context"
	"fmt"

	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/native"
	"github.com/agbru/tieraccel/internal/operation"
)

// Hybrid pipeline stage names, as reported by *apperrors.HybridStageError.
const (
	StagePreprocess  = "preprocess"
	StageCore        = "core"
	StagePostprocess = "postprocess"
)

// HybridStrategy describes an operation whose native path is a three-stage
// pipeline: host-side preparation, a native core, and host-side conversion
// of the core's result.
type HybridStrategy[In, Mid, Res, Out any] struct {
	Key             operation.Key
	Feature         native.Feature
	Size            func(In) int
	HighValue       func(In) bool
	Conditional     func(In) bool
	DeferToAnalyzer bool
	Validate        func(In) error

	Preprocess  func(ctx context.Context, in In) (Mid, error)
	Core        func(ctx context.Context, mod native.Module, mid Mid) (Res, error)
	Postprocess func(ctx context.Context, res Res) (Out, error)
	Fallback    func(ctx context.Context, in In) (Out, error)

	Equal   func(a, b Out) bool
	Profile Profile
}

// Hybrid dispatches a pipeline operation. Tiering, sampling and counters
// behave exactly as for Accelerator; the pipeline as a whole plays the role
// of the native implementation. The pipeline is all or nothing: a failure
// in any stage discards every partial result and the fallback runs on the
// original input.
type Hybrid[In, Mid, Res, Out any] struct {
	*Accelerator[In, Out]
}

// NewHybrid validates s and builds a hybrid accelerator over rc. A nil rc
// selects the process default.
func NewHybrid[In, Mid, Res, Out any](rc *RuntimeContext, s HybridStrategy[In, Mid, Res, Out]) (*Hybrid[In, Mid, Res, Out], error) {
	switch {
	case s.Preprocess == nil:
		return nil, apperrors.ValidationError{Field: "Preprocess", Message: fmt.Sprintf("%s: preprocess stage is required", s.Key)}
	case s.Core == nil:
		return nil, apperrors.ValidationError{Field: "Core", Message: fmt.Sprintf("%s: core stage is required", s.Key)}
	case s.Postprocess == nil:
		return nil, apperrors.ValidationError{Field: "Postprocess", Message: fmt.Sprintf("%s: postprocess stage is required", s.Key)}
	}

	pipeline := func(ctx context.Context, mod native.Module, in In) (Out, error) {
		var zero Out
		mid, err := runStage(StagePreprocess, func() (Mid, error) { return s.Preprocess(ctx, in) })
		if err != nil {
			return zero, err
		}
		res, err := runStage(StageCore, func() (Res, error) { return s.Core(ctx, mod, mid) })
		if err != nil {
			return zero, err
		}
		return runStage(StagePostprocess, func() (Out, error) { return s.Postprocess(ctx, res) })
	}

	acc, err := New(rc, Strategy[In, Out]{
		Key:             s.Key,
		Feature:         s.Feature,
		Size:            s.Size,
		HighValue:       s.HighValue,
		Conditional:     s.Conditional,
		DeferToAnalyzer: s.DeferToAnalyzer,
		Validate:        s.Validate,
		Native:          pipeline,
		Fallback:        s.Fallback,
		Equal:           s.Equal,
		Profile:         s.Profile,
	})
	if err != nil {
		return nil, err
	}
	return &Hybrid[In, Mid, Res, Out]{Accelerator: acc}, nil
}

// runStage runs one pipeline stage, converting both errors and panics into
// a *apperrors.HybridStageError naming the stage.
func runStage[T any](stage string, fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			err = &apperrors.HybridStageError{Stage: stage, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err = fn()
	if err != nil {
		var zero T
		return zero, &apperrors.HybridStageError{Stage: stage, Cause: err}
	}
	return out, nil
}
