package format

import (
	"fmt"
	"time"
)

// FormatExecutionDuration renders a measured duration with a unit matched to
// its magnitude. Kernel timings are often under a microsecond and print as
// "< 1µs" rather than zero.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return d.Round(time.Millisecond).String()
	}
}
