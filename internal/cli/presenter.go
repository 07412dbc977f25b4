package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/format"
	"github.com/agbru/tieraccel/internal/metrics"
	"github.com/agbru/tieraccel/internal/orchestration"
	"github.com/agbru/tieraccel/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter with a
// spinner and progress bar.
type CLIProgressReporter struct{}

var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress displays a spinner and progress bar for running workloads.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numWorkloads int, out io.Writer) {
	DisplayProgress(wg, progressChan, numWorkloads, out)
}

// CLIColorProvider supplies the active theme's colors to the error handler.
type CLIColorProvider struct{}

func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }
func (CLIColorProvider) Reset() string  { return ui.ColorReset() }

// CLIResultPresenter implements orchestration.ResultPresenter for terminal
// output.
type CLIResultPresenter struct{}

var (
	_ orchestration.ResultPresenter = CLIResultPresenter{}
	_ orchestration.ErrorHandler    = CLIResultPresenter{}
)

// comparisonHeaders are the column titles of the comparison table.
var comparisonHeaders = []string{"Operation", "Size", "Tier", "Mean", "Min", "Status"}

// PresentComparisonTable displays one row per operation and input size with
// the selected tier, timings and whether the accelerated results agreed with
// the fallback. Columns are padded on their visible width so colored cells
// stay aligned.
func (CLIResultPresenter) PresentComparisonTable(results []orchestration.WorkloadResult, out io.Writer) {
	st := ui.CurrentStyles()
	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")

	var rows [][]string
	for _, res := range results {
		for _, s := range res.Sizes {
			status := st.Status(true).Render("✅ OK")
			if s.Mismatches > 0 {
				status = st.Status(false).Render(fmt.Sprintf("❌ %d mismatch(es)", s.Mismatches))
			}
			tier := s.Tier.String()
			rows = append(rows, []string{
				ui.ColorBlue() + res.Name + ui.ColorReset(),
				format.FormatNumberString(strconv.Itoa(s.Size)),
				st.Tier(tier).Render(tier),
				format.FormatExecutionDuration(s.Mean),
				format.FormatExecutionDuration(s.Min),
				status,
			})
		}
		if res.Err != nil {
			rows = append(rows, []string{
				ui.ColorBlue() + res.Name + ui.ColorReset(), "-", "-", "-", "-",
				st.Status(false).Render(fmt.Sprintf("❌ Failure (%v)", res.Err)),
			})
		}
	}

	widths := make([]int, len(comparisonHeaders))
	for i, h := range comparisonHeaders {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	header := make([]string, len(comparisonHeaders))
	for i, h := range comparisonHeaders {
		header[i] = ui.ColorUnderline() + h + ui.ColorReset() + padRight("", widths[i]-len(h))
	}
	fmt.Fprintln(out, strings.TrimRight(strings.Join(header, "   "), " "))

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell + padRight("", widths[i]-lipgloss.Width(cell))
		}
		fmt.Fprintln(out, strings.TrimRight(strings.Join(cells, "   "), " "))
	}
}

// padRight returns s followed by length spaces.
func padRight(s string, length int) string {
	if length <= 0 {
		return s
	}
	return s + strings.Repeat(" ", length)
}

// PresentReports displays the learned threshold, sample count and execution
// metrics of each operation in a bordered panel.
func (CLIResultPresenter) PresentReports(reports []orchestration.OperationReport, out io.Writer) {
	st := ui.CurrentStyles()
	fmt.Fprintf(out, "\n--- Dispatch State ---\n")
	for _, r := range reports {
		fmt.Fprintln(out, st.Panel.Render(FormatReport(r, st)))
	}
}

// FormatReport renders the body of one operation report.
func FormatReport(r orchestration.OperationReport, st ui.Styles) string {
	m := r.Metrics
	line := func(label, value string) string {
		return st.Label.Render(fmt.Sprintf("%-18s", label)) + st.Value.Render(value)
	}
	lines := []string{
		st.Title.Render(r.Name),
		line("Threshold", format.FormatNumberString(strconv.Itoa(r.Threshold))),
		line("Samples", strconv.Itoa(r.Samples)),
		line("Executions", fmt.Sprintf("%d (native %d, fallback %d, sampled %d)",
			m.TotalExecutions, m.NativeExecutions, m.FallbackExecutions, m.SampledExecutions)),
	}
	if m.SampledExecutions > 0 {
		lines = append(lines,
			line("Avg native", fmt.Sprintf("%.3f ms", m.AvgNativeTimeMs)),
			line("Avg fallback", fmt.Sprintf("%.3f ms", m.AvgFallbackTimeMs)),
			line("Speedup", fmt.Sprintf("%.2fx (min %.2fx, max %.2fx)", m.AvgSpeedup, m.MinSpeedup, m.MaxSpeedup)),
			line("Time saved", fmt.Sprintf("%.3f ms", m.TotalTimeSavedMs)),
		)
	}
	if r.Profile.EstimatedSpeedup > 0 {
		lines = append(lines, st.Dim.Render(fmt.Sprintf("declared %.1fx above %s elements",
			r.Profile.EstimatedSpeedup, format.FormatNumberString(strconv.Itoa(r.Profile.EffectiveInputSize)))))
	}
	return strings.Join(lines, "\n")
}

// HandleError handles run errors and returns an appropriate exit code.
func (CLIResultPresenter) HandleError(err error, duration time.Duration, out io.Writer) int {
	return apperrors.HandleRunError(err, duration, out, CLIColorProvider{})
}

// DisplayMemoryStats shows the memory activity of a run.
func DisplayMemoryStats(d metrics.MemoryDelta, out io.Writer) {
	fmt.Fprintf(out, "\nMemory Stats:\n")
	fmt.Fprintf(out, "  Allocated:       %s\n", format.FormatBytes(d.AllocatedBytes))
	growth := format.FormatBytes(uint64(max(d.HeapGrowth, 0)))
	if d.HeapGrowth < 0 {
		growth = "-" + format.FormatBytes(uint64(-d.HeapGrowth))
	}
	fmt.Fprintf(out, "  Heap growth:     %s\n", growth)
	fmt.Fprintf(out, "  GC cycles:       %d\n", d.GCCycles)
	fmt.Fprintf(out, "  GC pause total:  %.2fms\n", float64(d.PauseNs)/1e6)
}
