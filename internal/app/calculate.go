package app

import (
	"context"
	"io"

	"github.com/agbru/tieraccel/internal/cli"
	"github.com/agbru/tieraccel/internal/metrics"
	"github.com/agbru/tieraccel/internal/orchestration"
)

// runWorkloads runs every selected operation over the configured sizes,
// compares accelerated results with the fallback, and reports the learned
// dispatch state.
func (a *Application) runWorkloads(ctx context.Context, out io.Writer) int {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()

	rc, err := a.newRuntimeContext(a.Config.SamplingPolicy())
	if err != nil {
		return a.setupError(err)
	}
	defer a.closeRuntime(rc)
	a.loadProfile(rc, out)

	runners, err := a.selectRunners(rc)
	if err != nil {
		return a.setupError(err)
	}

	// Skip verbose output in quiet mode
	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(runners, out)
	}

	var progressReporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	var presenter orchestration.ResultPresenter = cli.CLIResultPresenter{}
	statusOut := out
	if a.Config.Quiet {
		progressReporter = orchestration.NullProgressReporter{}
		presenter = cli.QuietPresenter{Out: out}
		statusOut = io.Discard
	}

	collector := metrics.NewMemoryCollector()
	before := collector.Snapshot()

	workloads := orchestration.BuildWorkloads(runners, a.Config.Sizes, a.Config.Iterations)
	results := orchestration.ExecuteWorkloads(ctx, workloads, orchestration.RandomInputs(inputSeed), progressReporter, statusOut)

	exitCode := orchestration.AnalyzeResults(results, presenter, statusOut)
	presenter.PresentReports(orchestration.BuildReports(rc, runners), statusOut)

	if a.Config.Verbose && !a.Config.Quiet {
		cli.DisplayMemoryStats(collector.Delta(before, collector.Snapshot()), out)
	}
	return exitCode
}
