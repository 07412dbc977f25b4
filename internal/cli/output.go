// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     They handle presentation logic and colorization.
//     Examples: [DisplayProgress], [DisplayQuietResults], [DisplayMemoryStats].
//
//   - Format* functions return a formatted string without performing I/O.
//     They are pure functions suitable for composition.
//     Examples: [FormatQuietLine], [FormatReport].
//
//   - Print* functions write run headers before execution starts.
//     Examples: [PrintExecutionConfig], [PrintExecutionMode].

package cli

import (
	"fmt"
	"io"
	"time"

	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/orchestration"
)

// FormatQuietLine formats one size of a workload as a single tab-separated
// line suitable for scripting: name, size, tier, mean nanoseconds and
// mismatch count.
func FormatQuietLine(name string, s orchestration.SizeResult) string {
	return fmt.Sprintf("%s\t%d\t%s\t%d\t%d", name, s.Size, s.Tier, s.Mean.Nanoseconds(), s.Mismatches)
}

// DisplayQuietResults writes one FormatQuietLine per size of each result.
// Failed workloads get an "error" line with the message.
func DisplayQuietResults(out io.Writer, results []orchestration.WorkloadResult) {
	for _, res := range results {
		for _, s := range res.Sizes {
			fmt.Fprintln(out, FormatQuietLine(res.Name, s))
		}
		if res.Err != nil {
			fmt.Fprintf(out, "%s\terror\t%v\n", res.Name, res.Err)
		}
	}
}

// QuietPresenter implements orchestration.ResultPresenter for quiet mode.
// It writes machine-readable lines to Out and ignores the writer it is
// handed, so status banners can be discarded by the caller.
type QuietPresenter struct {
	Out io.Writer
}

var _ orchestration.ResultPresenter = QuietPresenter{}

func (p QuietPresenter) PresentComparisonTable(results []orchestration.WorkloadResult, _ io.Writer) {
	DisplayQuietResults(p.Out, results)
}

func (p QuietPresenter) PresentReports(reports []orchestration.OperationReport, _ io.Writer) {
	for _, r := range reports {
		fmt.Fprintf(p.Out, "%s\tthreshold\t%d\t%d\n", r.Name, r.Threshold, r.Samples)
	}
}

func (p QuietPresenter) HandleError(err error, duration time.Duration, out io.Writer) int {
	return apperrors.HandleRunError(err, duration, out, apperrors.DefaultColorProvider{})
}
