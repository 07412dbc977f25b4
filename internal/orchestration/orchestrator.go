package orchestration

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/tieraccel/internal/accel"
	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/operation"
	"github.com/agbru/tieraccel/internal/ops"
)

// Workload is a series of calls to one operation: Iterations calls for each
// entry of Sizes.
type Workload struct {
	Runner     ops.Runner
	Sizes      []int
	Iterations int
}

func (w Workload) calls() int { return len(w.Sizes) * w.Iterations }

// SizeResult aggregates the calls made for one input size.
type SizeResult struct {
	Size int
	// Tier is the tier selected for the last call at this size.
	Tier  accel.Tier
	Calls int
	Mean  time.Duration
	Min   time.Duration
	// Mismatches counts calls whose accelerated result differed from a
	// direct fallback run.
	Mismatches int
}

// WorkloadResult encapsulates the outcome of one workload.
type WorkloadResult struct {
	Name string
	Key  operation.Key
	// Sizes holds one entry per completed size, in execution order.
	Sizes    []SizeResult
	Duration time.Duration
	// Err is the first error that stopped the workload.
	Err error
}

// Mismatches returns the total number of diverging calls.
func (r WorkloadResult) Mismatches() int {
	n := 0
	for _, s := range r.Sizes {
		n += s.Mismatches
	}
	return n
}

// InputGenerator produces the input for one call.
type InputGenerator func(size, iteration int) []float64

// RandomInputs returns a generator of uniformly distributed values in
// [-1000, 1000). The same seed, size and iteration always yield the same
// input, and the generator is safe for concurrent use.
func RandomInputs(seed uint64) InputGenerator {
	return func(size, iteration int) []float64 {
		rng := rand.New(rand.NewPCG(seed, uint64(size)<<32|uint64(uint32(iteration))))
		data := make([]float64, size)
		for i := range data {
			data[i] = rng.Float64()*2000 - 1000
		}
		return data
	}
}

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. A larger buffer reduces the likelihood of blocking workload
// goroutines when the UI is slow to consume updates.
const ProgressBufferMultiplier = 5

// ExecuteWorkloads runs workloads concurrently, one goroutine per workload.
// Calls within a workload are sequential, so no operation is ever driven
// from two goroutines at once. A failing workload does not stop the others;
// its error is recorded in its result.
func ExecuteWorkloads(ctx context.Context, workloads []Workload, gen InputGenerator, progressReporter ProgressReporter, out io.Writer) []WorkloadResult {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]WorkloadResult, len(workloads))
	progressChan := make(chan ProgressUpdate, len(workloads)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go progressReporter.DisplayProgress(&displayWg, progressChan, len(workloads), out)

	for i, w := range workloads {
		g.Go(func() error {
			results[i] = runWorkload(ctx, i, w, gen, progressChan)
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

func runWorkload(ctx context.Context, idx int, w Workload, gen InputGenerator, progressChan chan<- ProgressUpdate) (res WorkloadResult) {
	res = WorkloadResult{Name: w.Runner.Name(), Key: w.Runner.Key()}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	total, done := w.calls(), 0
	for _, size := range w.Sizes {
		sr := SizeResult{Size: size}
		var sum time.Duration
		for it := range w.Iterations {
			if err := ctx.Err(); err != nil {
				res.Err = err
				return res
			}
			outcome, err := w.Runner.Run(ctx, gen(size, it))
			if err != nil {
				res.Err = fmt.Errorf("%s at size %d: %w", res.Name, size, err)
				return res
			}
			sr.Tier = outcome.Tier
			sr.Calls++
			sum += outcome.Duration
			if sr.Calls == 1 || outcome.Duration < sr.Min {
				sr.Min = outcome.Duration
			}
			if !outcome.Matched {
				sr.Mismatches++
			}

			done++
			select {
			case progressChan <- ProgressUpdate{WorkloadIndex: idx, Value: float64(done) / float64(total)}:
			case <-ctx.Done():
			}
		}
		if sr.Calls > 0 {
			sr.Mean = sum / time.Duration(sr.Calls)
			res.Sizes = append(res.Sizes, sr)
		}
	}
	return res
}

// AnalyzeResults sorts the results by name, presents them, and derives the
// run's exit code: the error handler's code when any workload failed,
// ExitErrorMismatch when any accelerated result diverged from its fallback,
// and ExitSuccess otherwise.
func AnalyzeResults(results []WorkloadResult, presenter ResultPresenter, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	var firstError error
	var elapsed time.Duration
	mismatches := 0
	for _, r := range results {
		if r.Err != nil && firstError == nil {
			firstError = r.Err
			elapsed = r.Duration
		}
		mismatches += r.Mismatches()
	}

	presenter.PresentComparisonTable(results, out)

	if firstError != nil {
		fmt.Fprintf(out, "\nGlobal Status: Failure. At least one operation could not complete.\n")
		return presenter.HandleError(firstError, elapsed, out)
	}
	if mismatches > 0 {
		fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! %d accelerated result(s) diverged from the fallback.\n", mismatches)
		return apperrors.ExitErrorMismatch
	}

	fmt.Fprintf(out, "\nGlobal Status: Success. All accelerated results match their fallback.\n")
	return apperrors.ExitSuccess
}
