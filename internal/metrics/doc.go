// Package metrics accumulates per-operation execution statistics and exposes
// them to diagnostics consumers.
//
// Counter aggregation is purely additive: every dispatch increments the
// execution totals, while only sampled dispatches, where both paths were
// timed in the same call, contribute to speedup statistics and time saved.
// Exporter adapts a Registry to the Prometheus collector interface, and
// MemoryCollector reports heap growth for workload reports.
package metrics
