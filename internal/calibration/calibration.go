// Package calibration seeds the learned thresholds before real traffic
// arrives. It drives every operation over a grid of input sizes under a
// sampling policy that times both paths on each call, so the threshold
// model starts from measurements instead of its configured initial value.
// The outcome can be persisted as a profile and restored at start-up.
package calibration

import (
	"context"
	"fmt"
	"time"

	"github.com/agbru/tieraccel/internal/accel"
	"github.com/agbru/tieraccel/internal/operation"
	"github.com/agbru/tieraccel/internal/ops"
	"github.com/agbru/tieraccel/internal/orchestration"
)

// DefaultRounds is the number of calls made per operation and size.
const DefaultRounds = 3

// Result is the calibration outcome of one operation.
type Result struct {
	Name string
	Key  operation.Key
	// InitialThreshold is the threshold before the warm-up.
	InitialThreshold int
	// Threshold is the learned threshold after the warm-up.
	Threshold int
	// Samples is the number of retained samples.
	Samples int
	// Calls is the number of completed calls.
	Calls    int
	Duration time.Duration
	Err      error
}

// Options tunes a warm-up.
type Options struct {
	// Rounds is the number of calls per size, DefaultRounds when zero.
	Rounds int
	// PerTrial bounds each call; zero means no bound besides ctx.
	PerTrial time.Duration
	// GCMode controls the collector during the warm-up, GCModeAuto when
	// empty.
	GCMode GCMode
}

// Warmup runs each runner over each size and reports the threshold each
// operation converged to. Runners must be built on rc, and rc should use
// accel.AlwaysSample so every call feeds the threshold model.
//
// Operations are calibrated one after another so their timings do not
// compete for cores. A failing operation is recorded and the next one
// proceeds; cancellation of ctx stops the warm-up.
func Warmup(ctx context.Context, rc *accel.RuntimeContext, runners []ops.Runner, sizes []int, gen orchestration.InputGenerator, opts Options) []Result {
	rounds := opts.Rounds
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	logger := rc.Logger()

	gc := NewGCController(opts.GCMode, sizes)
	gc.SetLogger(logger)
	gc.Begin()
	defer gc.End()

	results := make([]Result, 0, len(runners))
	for _, r := range runners {
		key := r.Key()
		res := Result{Name: r.Name(), Key: key, InitialThreshold: rc.Thresholds.GetThreshold(key)}
		start := time.Now()
		res.Calls, res.Err = warmupOne(ctx, r, sizes, gen, rounds, opts.PerTrial)
		res.Duration = time.Since(start)
		res.Threshold = rc.Thresholds.GetThreshold(key)
		res.Samples = len(rc.Thresholds.GetSamples(key))

		logger.Debug().
			Str("operation", res.Name).
			Int("threshold_initial", res.InitialThreshold).
			Int("threshold", res.Threshold).
			Int("samples", res.Samples).
			Dur("duration", res.Duration).
			Err(res.Err).
			Msg("operation calibrated")

		results = append(results, res)
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

func warmupOne(ctx context.Context, r ops.Runner, sizes []int, gen orchestration.InputGenerator, rounds int, perTrial time.Duration) (int, error) {
	calls := 0
	for _, size := range sizes {
		for i := range rounds {
			if err := ctx.Err(); err != nil {
				return calls, err
			}
			if err := runTrial(ctx, r, gen(size, i), perTrial); err != nil {
				return calls, fmt.Errorf("size %d: %w", size, err)
			}
			calls++
		}
	}
	return calls, nil
}

func runTrial(ctx context.Context, r ops.Runner, data []float64, perTrial time.Duration) error {
	if perTrial > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, perTrial)
		defer cancel()
	}
	_, err := r.Run(ctx, data)
	return err
}

// Thresholds returns the learned threshold of every successful result,
// keyed by operation name.
func Thresholds(results []Result) map[string]int {
	out := make(map[string]int, len(results))
	for _, r := range results {
		if r.Err == nil {
			out[r.Name] = r.Threshold
		}
	}
	return out
}
