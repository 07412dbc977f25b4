// Package sysmon samples system-wide CPU, memory and load so run reports can
// show the conditions the timings were taken under.
package sysmon

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent float64 `json:"cpu_percent"` // 0.0 .. 100.0
	MemPercent float64 `json:"mem_percent"` // 0.0 .. 100.0
	// Load1 is the one-minute load average, zero where unsupported.
	Load1 float64 `json:"load1"`
}

// String renders the snapshot for report headers.
func (s Stats) String() string {
	return fmt.Sprintf("cpu %.1f%%, mem %.1f%%, load %.2f", s.CPUPercent, s.MemPercent, s.Load1)
}

// Sample collects a snapshot with a background context.
func Sample() Stats {
	return SampleContext(context.Background())
}

// SampleContext collects a single system-wide snapshot. CPU uses
// interval=0 (delta since last call). Fields whose probe fails stay zero.
func SampleContext(ctx context.Context) Stats {
	var s Stats
	cpuPcts, err := cpu.PercentWithContext(ctx, 0, false)
	if err == nil && len(cpuPcts) > 0 {
		s.CPUPercent = cpuPcts[0]
	}
	vmem, err := mem.VirtualMemoryWithContext(ctx)
	if err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	avg, err := load.AvgWithContext(ctx)
	if err == nil && avg != nil {
		s.Load1 = avg.Load1
	}
	return s
}
