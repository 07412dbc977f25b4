// Package orchestration runs operation workloads concurrently and aggregates
// their outcomes for reporting. It decouples execution from presentation via
// the ProgressReporter and ResultPresenter interfaces.
package orchestration
