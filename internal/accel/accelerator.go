package accel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/tieraccel/internal/analyzer"
	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/metrics"
	"github.com/agbru/tieraccel/internal/native"
	"github.com/agbru/tieraccel/internal/operation"
	"github.com/agbru/tieraccel/internal/threshold"
)

// Strategy describes one operation to the dispatcher. Every field other than
// Key, Size, Native and Fallback is optional.
type Strategy[In, Out any] struct {
	Key operation.Key

	// Feature, when set, must be supported by the runtime before the
	// native path is ever attempted.
	Feature native.Feature

	// Size measures an input for threshold comparisons and samples.
	Size func(In) int

	// HighValue and Conditional are the tier predicates, evaluated in that
	// order. Inputs matching neither fall through to the analyzer (when
	// DeferToAnalyzer is set) and then to the learned threshold.
	HighValue   func(In) bool
	Conditional func(In) bool

	// DeferToAnalyzer consults the analyzer's decision table for inputs
	// that match no predicate.
	DeferToAnalyzer bool

	// Validate rejects inputs neither implementation can handle. Its error
	// is returned to the caller before any dispatch.
	Validate func(In) error

	Native   func(ctx context.Context, mod native.Module, in In) (Out, error)
	Fallback func(ctx context.Context, in In) (Out, error)

	// Equal compares outputs when sampled calls are verified.
	Equal func(a, b Out) bool

	Profile Profile
}

// Accelerator dispatches calls for one operation between its native and
// fallback implementations. It holds no mutable state of its own.
type Accelerator[In, Out any] struct {
	rc *RuntimeContext
	s  Strategy[In, Out]
}

// New validates s and builds an accelerator over rc. A nil rc selects the
// process default.
func New[In, Out any](rc *RuntimeContext, s Strategy[In, Out]) (*Accelerator[In, Out], error) {
	switch {
	case s.Key.IsZero():
		return nil, apperrors.ValidationError{Field: "Key", Message: "operation key is required"}
	case s.Size == nil:
		return nil, apperrors.ValidationError{Field: "Size", Message: fmt.Sprintf("%s: size function is required", s.Key)}
	case s.Native == nil:
		return nil, apperrors.ValidationError{Field: "Native", Message: fmt.Sprintf("%s: native implementation is required", s.Key)}
	case s.Fallback == nil:
		return nil, apperrors.ValidationError{Field: "Fallback", Message: fmt.Sprintf("%s: fallback implementation is required", s.Key)}
	}
	if rc == nil {
		rc = Default()
	}
	return &Accelerator[In, Out]{rc: rc, s: s}, nil
}

// Key returns the operation key.
func (a *Accelerator[In, Out]) Key() operation.Key { return a.s.Key }

// Context returns the runtime context the accelerator dispatches through.
func (a *Accelerator[In, Out]) Context() *RuntimeContext { return a.rc }

// PerformanceProfile returns the declared performance expectations.
func (a *Accelerator[In, Out]) PerformanceProfile() Profile { return a.s.Profile }

// Fallback runs the fallback implementation directly, bypassing dispatch.
func (a *Accelerator[In, Out]) Fallback(ctx context.Context, in In) (Out, error) {
	return a.s.Fallback(ctx, in)
}

// ─────────────────────────────────────────────────────────────────────────────
// Tier Selection
// ─────────────────────────────────────────────────────────────────────────────

// DetermineTier selects the tier for in:
//
//  1. FallbackPreferred if native is known unavailable or the required
//     feature is unsupported.
//  2. HighValue if the HighValue predicate matches.
//  3. Conditional if the Conditional predicate matches.
//  4. With DeferToAnalyzer, the analyzer's recommendation: FallbackPreferred
//     for a fallback strategy, Conditional otherwise.
//  5. Otherwise HighValue when the size reaches the learned threshold,
//     FallbackPreferred below it.
//
// A panicking predicate or size function yields FallbackPreferred.
func (a *Accelerator[In, Out]) DetermineTier(in In) (tier Tier) {
	defer func() {
		if r := recover(); r != nil {
			tier = FallbackPreferred
		}
	}()

	if !a.capable() {
		return FallbackPreferred
	}
	if a.s.HighValue != nil && a.s.HighValue(in) {
		return HighValue
	}
	if a.s.Conditional != nil && a.s.Conditional(in) {
		return Conditional
	}
	if a.s.DeferToAnalyzer {
		if a.rc.Analyzer.Classify(in).RecommendedStrategy == analyzer.StrategyFallback {
			return FallbackPreferred
		}
		return Conditional
	}
	if a.s.Size(in) >= a.rc.Thresholds.GetThreshold(a.s.Key) {
		return HighValue
	}
	return FallbackPreferred
}

// capable reports whether the native path may be attempted at all. Before
// the first load the module is presumed available.
func (a *Accelerator[In, Out]) capable() bool {
	if a.rc.Loader.Unavailable() {
		return false
	}
	return a.s.Feature == "" || a.rc.Loader.IsFeatureSupported(a.s.Feature)
}

func (a *Accelerator[In, Out]) size(in In) (n int) {
	defer func() {
		if r := recover(); r != nil {
			n = 0
		}
	}()
	return a.s.Size(in)
}

// ─────────────────────────────────────────────────────────────────────────────
// Dispatch
// ─────────────────────────────────────────────────────────────────────────────

// Execute runs the operation on in and returns a result identical to the
// fallback implementation's, modulo floating-point tolerance. Native
// failures are absorbed; only validation and fallback errors are returned.
func (a *Accelerator[In, Out]) Execute(ctx context.Context, in In) (Out, error) {
	ctx, span := a.rc.tracer.Start(ctx, "accel.Execute",
		trace.WithAttributes(attribute.String("tieraccel.operation", a.s.Key.String())))
	defer span.End()

	if a.s.Validate != nil {
		if err := a.s.Validate(in); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid input")
			var zero Out
			return zero, err
		}
	}

	tier := a.DetermineTier(in)
	size := a.size(in)
	useNative := tier == HighValue ||
		(tier == Conditional && size >= a.rc.Thresholds.GetThreshold(a.s.Key))
	sample := a.capable() && a.rc.ShouldSample(a.s.Key)

	var mod native.Module
	if useNative || sample {
		m, err := a.rc.Loader.Load(ctx)
		if err != nil {
			a.rc.logger.Debug().Err(err).Str("operation", a.s.Key.String()).Msg("native path unavailable")
			useNative, sample = false, false
		} else {
			mod = m
		}
	}

	span.SetAttributes(
		attribute.String("tieraccel.tier", tier.String()),
		attribute.Int("tieraccel.size", size),
		attribute.Bool("tieraccel.native", useNative),
		attribute.Bool("tieraccel.sampled", sample),
	)

	if sample {
		return a.executeSampled(ctx, span, mod, in, tier, size, useNative)
	}

	if useNative {
		start := time.Now()
		out, err := a.callNative(ctx, mod, in, tier)
		if err == nil {
			a.rc.Counters.Record(a.s.Key, metrics.Native, elapsedMs(start))
			return out, nil
		}
		span.AddEvent("native failure", trace.WithAttributes(attribute.String("error", err.Error())))
		a.rc.warnNativeFailure(a.s.Key, tier, err)
	}

	start := time.Now()
	out, err := a.s.Fallback(ctx, in)
	a.rc.Counters.Record(a.s.Key, metrics.Fallback, elapsedMs(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback failed")
	}
	return out, err
}

// executeSampled runs the native then the fallback implementation, in that
// order and never concurrently, records the paired timing, and returns the
// result of the tier-selected path.
func (a *Accelerator[In, Out]) executeSampled(ctx context.Context, span trace.Span, mod native.Module, in In, tier Tier, size int, useNative bool) (Out, error) {
	nativeStart := time.Now()
	nativeOut, nativeErr := a.callNative(ctx, mod, in, tier)
	nativeMs := elapsedMs(nativeStart)

	fallbackStart := time.Now()
	var fallbackOut Out
	var fallbackErr error
	if useNative && nativeErr == nil {
		fallbackOut, fallbackErr = a.callSideFallback(ctx, in)
	} else {
		fallbackOut, fallbackErr = a.s.Fallback(ctx, in)
	}
	fallbackMs := elapsedMs(fallbackStart)

	if nativeErr != nil {
		span.AddEvent("native failure", trace.WithAttributes(attribute.String("error", nativeErr.Error())))
		a.rc.warnNativeFailure(a.s.Key, tier, nativeErr)
		a.rc.Counters.Record(a.s.Key, metrics.Fallback, fallbackMs)
		return fallbackOut, fallbackErr
	}
	if fallbackErr != nil && useNative {
		// The fallback only served as the timing reference; the sample is
		// lost but the native result stands.
		a.rc.logger.Debug().Err(fallbackErr).
			Str("operation", a.s.Key.String()).
			Int("size", size).
			Msg("sampling fallback failed, sample dropped")
		span.AddEvent("sample dropped", trace.WithAttributes(attribute.String("error", fallbackErr.Error())))
		a.rc.Counters.Record(a.s.Key, metrics.Native, nativeMs)
		return nativeOut, nil
	}
	if fallbackErr != nil {
		a.rc.Counters.Record(a.s.Key, metrics.Fallback, fallbackMs)
		span.RecordError(fallbackErr)
		span.SetStatus(codes.Error, "fallback failed")
		return fallbackOut, fallbackErr
	}

	a.rc.Thresholds.RecordSample(a.s.Key, threshold.Sample{
		InputSize:      size,
		NativeTimeMs:   nativeMs,
		FallbackTimeMs: fallbackMs,
		Timestamp:      time.Now(),
	})
	used := metrics.Fallback
	if useNative {
		used = metrics.Native
	}
	a.rc.Counters.RecordSampled(a.s.Key, used, nativeMs, fallbackMs)

	if a.rc.Sampling.Verify && a.s.Equal != nil && !a.s.Equal(nativeOut, fallbackOut) {
		a.rc.divergences.Add(1)
		a.rc.logger.Warn().
			Str("operation", a.s.Key.String()).
			Int("size", size).
			Msg("native and fallback results diverge")
	}

	if useNative {
		return nativeOut, nil
	}
	return fallbackOut, nil
}

// callNative is the failure boundary around the native implementation.
// Errors and panics both come back as *apperrors.NativeExecutionError.
func (a *Accelerator[In, Out]) callNative(ctx context.Context, mod native.Module, in In, tier Tier) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero Out
			out = zero
			err = &apperrors.NativeExecutionError{Key: a.s.Key, Tier: tier.String(), Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err = a.s.Native(ctx, mod, in)
	if err != nil {
		var zero Out
		return zero, &apperrors.NativeExecutionError{Key: a.s.Key, Tier: tier.String(), Cause: err}
	}
	return out, nil
}

// callSideFallback runs the fallback when its result is only used for timing
// and verification. A panic is returned as an error.
func (a *Accelerator[In, Out]) callSideFallback(ctx context.Context, in In) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero Out
			out = zero
			err = fmt.Errorf("fallback panic: %v", r)
		}
	}()
	return a.s.Fallback(ctx, in)
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}
