package orchestration

import (
	"time"

	"github.com/agbru/tieraccel/internal/format"
)

// ProgressAggregator manages multi-workload progress aggregation.
// It wraps format.ProgressWithETA and provides a higher-level API
// for consuming progress updates from a channel.
type ProgressAggregator struct {
	state        *format.ProgressWithETA
	numWorkloads int
}

// NewProgressAggregator creates a new aggregator for the given number
// of workloads. Returns nil if numWorkloads <= 0.
func NewProgressAggregator(numWorkloads int) *ProgressAggregator {
	if numWorkloads <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state:        format.NewProgressWithETA(numWorkloads),
		numWorkloads: numWorkloads,
	}
}

// AggregatedProgress holds the result of processing a single progress update.
type AggregatedProgress struct {
	WorkloadIndex int
	// Value is the raw progress value from the update.
	Value float64
	// AverageProgress is the aggregated average across all workloads.
	AverageProgress float64
	// ETA is the estimated time remaining.
	ETA time.Duration
}

// Update processes a single progress update and returns the aggregated result.
func (a *ProgressAggregator) Update(update ProgressUpdate) AggregatedProgress {
	avgProgress, eta := a.state.UpdateWithETA(update.WorkloadIndex, update.Value)
	return AggregatedProgress{
		WorkloadIndex:   update.WorkloadIndex,
		Value:           update.Value,
		AverageProgress: avgProgress,
		ETA:             eta,
	}
}

// CalculateAverage returns the current average progress without updating.
// Useful for periodic refresh between updates.
func (a *ProgressAggregator) CalculateAverage() float64 {
	return a.state.CalculateAverage()
}

// GetETA returns the current ETA estimate without updating.
func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

// NumWorkloads returns the number of workloads being tracked.
func (a *ProgressAggregator) NumWorkloads() int {
	return a.numWorkloads
}

// IsMultiWorkload returns true if tracking more than one workload.
func (a *ProgressAggregator) IsMultiWorkload() bool {
	return a.numWorkloads > 1
}

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan ProgressUpdate) {
	for range progressChan {
	}
}
