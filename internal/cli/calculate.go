package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/agbru/tieraccel/internal/config"
	"github.com/agbru/tieraccel/internal/ops"
	"github.com/agbru/tieraccel/internal/sysmon"
	"github.com/agbru/tieraccel/internal/ui"
)

// PrintExecutionConfig displays the run configuration: sizes, timeout,
// environment, system load and the threshold and sampling settings.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	sizes := make([]string, len(cfg.Sizes))
	for i, n := range cfg.Sizes {
		sizes[i] = fmt.Sprint(n)
	}
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Running sizes %s[%s]%s x %s%d%s iterations with a timeout of %s%s%s.\n",
		ui.ColorMagenta(), strings.Join(sizes, ", "), ui.ColorReset(),
		ui.ColorMagenta(), cfg.Iterations, ui.ColorReset(),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s, %s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset(),
		sysmon.Sample())
	fmt.Fprintf(out, "Thresholds: initial=%s%d%s max=%s%d%s min-speedup=%s%.2f%s adaptive=%s%t%s.\n",
		ui.ColorCyan(), cfg.MinSize, ui.ColorReset(),
		ui.ColorCyan(), cfg.MaxSize, ui.ColorReset(),
		ui.ColorCyan(), cfg.MinSpeedup, ui.ColorReset(),
		ui.ColorCyan(), cfg.Adaptive, ui.ColorReset())
	fmt.Fprintf(out, "Sampling: warm-up=%s%d%s rate=%s%.3f%s verify=%s%t%s.\n",
		ui.ColorCyan(), cfg.WarmupCalls, ui.ColorReset(),
		ui.ColorCyan(), cfg.SampleRate, ui.ColorReset(),
		ui.ColorCyan(), cfg.Verify, ui.ColorReset())
}

// PrintExecutionMode displays whether one operation or several run
// concurrently.
func PrintExecutionMode(runners []ops.Runner, out io.Writer) {
	var modeDesc string
	switch len(runners) {
	case 0:
		modeDesc = "No operation selected"
	case 1:
		modeDesc = fmt.Sprintf("Single operation %s%s%s", ui.ColorGreen(), runners[0].Name(), ui.ColorReset())
	default:
		modeDesc = fmt.Sprintf("Concurrent run of %s%d%s operations", ui.ColorGreen(), len(runners), ui.ColorReset())
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
