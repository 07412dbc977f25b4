package metrics

import "runtime"

// MemorySnapshot holds a point-in-time memory reading.
type MemorySnapshot struct {
	HeapAlloc    uint64 // bytes in use by application
	HeapSys      uint64 // bytes obtained from OS for heap
	Sys          uint64 // total bytes obtained from OS
	NumGC        uint32 // number of completed GC cycles
	PauseTotalNs uint64 // cumulative GC pause time
	HeapObjects  uint64 // number of allocated heap objects
	TotalAlloc   uint64 // cumulative bytes allocated
}

// MemoryDelta is the change between two snapshots taken around a workload.
type MemoryDelta struct {
	// AllocatedBytes is the cumulative allocation during the workload.
	AllocatedBytes uint64
	// HeapGrowth is the signed change in live heap bytes.
	HeapGrowth int64
	// GCCycles is the number of collections that completed in between.
	GCCycles uint32
	// PauseNs is the GC pause time accumulated in between.
	PauseNs uint64
}

// MemoryCollector reads runtime memory statistics.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Snapshot reads current memory statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
		HeapObjects:  m.HeapObjects,
		TotalAlloc:   m.TotalAlloc,
	}
}

// Delta computes the change from before to after.
func (mc *MemoryCollector) Delta(before, after MemorySnapshot) MemoryDelta {
	d := MemoryDelta{HeapGrowth: int64(after.HeapAlloc) - int64(before.HeapAlloc)}
	if after.TotalAlloc > before.TotalAlloc {
		d.AllocatedBytes = after.TotalAlloc - before.TotalAlloc
	}
	if after.NumGC > before.NumGC {
		d.GCCycles = after.NumGC - before.NumGC
	}
	if after.PauseTotalNs > before.PauseTotalNs {
		d.PauseNs = after.PauseTotalNs - before.PauseTotalNs
	}
	return d
}
