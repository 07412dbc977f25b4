package orchestration

import (
	"io"
	"sync"
	"time"
)

// ProgressUpdate reports the completion fraction of one workload.
type ProgressUpdate struct {
	// WorkloadIndex is the workload's position in the executed slice.
	WorkloadIndex int
	// Value is the completed fraction, 0.0 to 1.0.
	Value float64
}

// ProgressReporter defines the interface for displaying workload progress.
// It decouples the orchestration layer from the presentation layer.
type ProgressReporter interface {
	// DisplayProgress consumes updates until progressChan is closed, then
	// calls wg.Done. It runs in its own goroutine.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numWorkloads int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numWorkloads int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numWorkloads int, out io.Writer) {
	f(wg, progressChan, numWorkloads, out)
}

// NullProgressReporter is a no-op implementation of ProgressReporter.
// It drains the progress channel without displaying anything.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter defines the interface for presenting workload results.
type ResultPresenter interface {
	// PresentComparisonTable displays one row per operation and size.
	PresentComparisonTable(results []WorkloadResult, out io.Writer)
	// PresentReports displays the learned state of each operation.
	PresentReports(reports []OperationReport, out io.Writer)
	ErrorHandler
}

// ErrorHandler handles run errors and returns exit codes.
type ErrorHandler interface {
	HandleError(err error, duration time.Duration, out io.Writer) int
}
