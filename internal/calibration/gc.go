package calibration

import (
	"math"
	"runtime"
	"runtime/debug"
	"slices"

	"github.com/rs/zerolog"
)

// GCMode controls the garbage collector during a warm-up.
type GCMode string

const (
	// GCModeAuto pauses collection when the largest warm-up size reaches
	// GCAutoThreshold.
	GCModeAuto GCMode = "auto"
	// GCModeAggressive always pauses collection.
	GCModeAggressive GCMode = "aggressive"
	// GCModeDisabled leaves the collector alone.
	GCModeDisabled GCMode = "disabled"
)

// GCAutoThreshold is the input size from which GCModeAuto pauses the
// collector. Smaller inputs allocate too little for a cycle to land inside
// a timed call.
const GCAutoThreshold = 65_536

// GCController pauses Go's garbage collector for the duration of a warm-up,
// so collection cycles do not inflate one side of a paired timing sample.
// A soft memory limit stays in place as a safety net. The collector
// settings are process-wide: one controller may be active at a time.
type GCController struct {
	mode              GCMode
	originalGCPercent int
	active            bool
	logger            zerolog.Logger
	startStats        runtime.MemStats
	endStats          runtime.MemStats
}

// GCStats holds collector statistics between Begin and End.
type GCStats struct {
	HeapAlloc    uint64
	TotalAlloc   uint64
	NumGC        uint32
	PauseTotalNs uint64
}

// NewGCController creates a controller for mode and a warm-up over sizes.
// An empty mode means GCModeAuto.
func NewGCController(mode GCMode, sizes []int) *GCController {
	if mode == "" {
		mode = GCModeAuto
	}
	gc := &GCController{mode: mode, logger: zerolog.Nop()}
	switch mode {
	case GCModeAggressive:
		gc.active = true
	case GCModeAuto:
		gc.active = len(sizes) > 0 && slices.Max(sizes) >= GCAutoThreshold
	}
	return gc
}

// SetLogger configures the logger for GC control events.
func (gc *GCController) SetLogger(l zerolog.Logger) {
	gc.logger = l
}

// Active reports whether Begin pauses the collector.
func (gc *GCController) Active() bool { return gc.active }

// Begin disables GC if the controller is active.
func (gc *GCController) Begin() {
	if !gc.active {
		return
	}
	runtime.ReadMemStats(&gc.startStats)
	gc.originalGCPercent = debug.SetGCPercent(-1)
	if gc.startStats.Sys > 0 {
		if limit := int64(float64(gc.startStats.Sys) * 3); limit > 0 {
			debug.SetMemoryLimit(limit)
		}
	}
	gc.logger.Debug().
		Str("mode", string(gc.mode)).
		Uint64("heap_alloc_bytes", gc.startStats.HeapAlloc).
		Msg("gc paused for calibration")
}

// End restores the original GC settings and triggers a collection.
func (gc *GCController) End() {
	if !gc.active {
		return
	}
	runtime.ReadMemStats(&gc.endStats)
	debug.SetGCPercent(gc.originalGCPercent)
	debug.SetMemoryLimit(math.MaxInt64)
	runtime.GC()
	gc.logger.Debug().
		Str("mode", string(gc.mode)).
		Uint64("heap_alloc_bytes", gc.endStats.HeapAlloc).
		Uint64("total_alloc_bytes", gc.endStats.TotalAlloc-gc.startStats.TotalAlloc).
		Uint32("gc_cycles", gc.endStats.NumGC-gc.startStats.NumGC).
		Msg("gc resumed")
}

// Stats returns the statistics delta between Begin and End.
func (gc *GCController) Stats() GCStats {
	return GCStats{
		HeapAlloc:    gc.endStats.HeapAlloc,
		TotalAlloc:   gc.endStats.TotalAlloc - gc.startStats.TotalAlloc,
		NumGC:        gc.endStats.NumGC - gc.startStats.NumGC,
		PauseTotalNs: gc.endStats.PauseTotalNs - gc.startStats.PauseTotalNs,
	}
}
