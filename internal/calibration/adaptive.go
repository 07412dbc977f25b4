// This file implements warm-up size generation based on hardware characteristics.

package calibration

import (
	"math"
	"slices"

	"github.com/agbru/tieraccel/internal/config"
)

// ─────────────────────────────────────────────────────────────────────────────
// Adaptive Warm-up Size Generation
// ─────────────────────────────────────────────────────────────────────────────

// GenerateWarmupSizes returns log-spaced input sizes spanning [min, max],
// both ends included. The number of sizes follows the CPU count: machines
// with more cores get a finer grid since they finish each trial sooner.
//
// Sizes are deduplicated, so narrow ranges may yield fewer entries. A
// non-positive min is raised to 1 and max is raised to min.
func GenerateWarmupSizes(min, max int) []int {
	return generateSizes(min, max, config.EstimateWarmupSizeCount())
}

// GenerateQuickWarmupSizes returns only the bounds and their geometric
// midpoint, for a fast calibration at start-up.
func GenerateQuickWarmupSizes(min, max int) []int {
	return generateSizes(min, max, 3)
}

func generateSizes(lo, hi, count int) []int {
	lo = max(lo, 1)
	hi = max(hi, lo)
	if lo == hi || count < 2 {
		return []int{lo}
	}

	logLo, logHi := math.Log(float64(lo)), math.Log(float64(hi))
	step := (logHi - logLo) / float64(count-1)

	sizes := make([]int, 0, count)
	for i := range count {
		n := int(math.Round(math.Exp(logLo + step*float64(i))))
		sizes = append(sizes, min(max(n, lo), hi))
	}
	sizes[len(sizes)-1] = hi
	return slices.Compact(sizes)
}
