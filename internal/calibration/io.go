package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/tieraccel/internal/format"
	"github.com/agbru/tieraccel/internal/ui"
)

// PrintResults formats and prints the calibration results table.
func PrintResults(out io.Writer, results []Result) {
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sOperation%s\t%sThreshold%s\t%sSamples%s\t%sDuration%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", strings.Repeat("─", 9), strings.Repeat("─", 9), strings.Repeat("─", 7), strings.Repeat("─", 8))
	for _, res := range results {
		thresholdStr := fmt.Sprintf("%sN/A%s", ui.ColorRed(), ui.ColorReset())
		if res.Err == nil {
			thresholdStr = fmt.Sprintf("%s%d%s", ui.ColorYellow(), res.Threshold, ui.ColorReset())
			if res.Threshold != res.InitialThreshold {
				thresholdStr += fmt.Sprintf(" %s(from %d)%s", ui.ColorGreen(), res.InitialThreshold, ui.ColorReset())
			}
		}
		fmt.Fprintf(tw, "  %s%s%s\t%s\t%d\t%s\n",
			ui.ColorCyan(), res.Name, ui.ColorReset(), thresholdStr, res.Samples, format.FormatExecutionDuration(res.Duration))
	}
	tw.Flush()

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(out, "%s%s: %v%s\n", ui.ColorRed(), res.Name, res.Err, ui.ColorReset())
		}
	}
}

// PrintProfileSaved reports where a calibration profile was written.
func PrintProfileSaved(out io.Writer, path string, p *Profile) {
	fmt.Fprintf(out, "%sCalibration profile%s saved to %s%s%s (%d operations).\n",
		ui.ColorGreen(), ui.ColorReset(), ui.ColorCyan(), path, ui.ColorReset(), len(p.Thresholds))
}
