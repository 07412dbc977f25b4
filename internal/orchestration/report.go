package orchestration

import (
	"github.com/agbru/tieraccel/internal/accel"
	"github.com/agbru/tieraccel/internal/metrics"
	"github.com/agbru/tieraccel/internal/operation"
	"github.com/agbru/tieraccel/internal/ops"
)

// OperationReport is the learned dispatch state of one operation.
type OperationReport struct {
	Name      string                     `json:"name"`
	Key       operation.Key              `json:"-"`
	Threshold int                        `json:"threshold"`
	Samples   int                        `json:"samples"`
	Metrics   metrics.PerformanceMetrics `json:"metrics"`
	Profile   accel.Profile              `json:"profile"`
}

// BuildReports snapshots the state rc holds for each runner's operation.
func BuildReports(rc *accel.RuntimeContext, runners []ops.Runner) []OperationReport {
	reports := make([]OperationReport, len(runners))
	for i, r := range runners {
		key := r.Key()
		reports[i] = OperationReport{
			Name:      r.Name(),
			Key:       key,
			Threshold: rc.Thresholds.GetThreshold(key),
			Samples:   len(rc.Thresholds.GetSamples(key)),
			Metrics:   rc.Counters.GetMetrics(key),
			Profile:   r.Profile(),
		}
	}
	return reports
}
