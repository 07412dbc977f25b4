package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agbru/tieraccel/internal/operation"
)

// ThresholdSource is the read side of the threshold registry used when
// exporting learned thresholds.
type ThresholdSource interface {
	Keys() []operation.Key
	GetThreshold(key operation.Key) int
}

// Exporter publishes a Registry, and optionally the learned thresholds, as
// Prometheus metrics. Values are read at scrape time.
type Exporter struct {
	counters   *Registry
	thresholds ThresholdSource

	executions *prometheus.Desc
	sampled    *prometheus.Desc
	avgTime    *prometheus.Desc
	speedup    *prometheus.Desc
	timeSaved  *prometheus.Desc
	threshold  *prometheus.Desc
}

var keyLabels = []string{"domain", "type", "operation"}

// NewExporter creates an exporter over counters. thresholds may be nil.
func NewExporter(counters *Registry, thresholds ThresholdSource) *Exporter {
	implLabels := append(append([]string{}, keyLabels...), "implementation")
	return &Exporter{
		counters:   counters,
		thresholds: thresholds,
		executions: prometheus.NewDesc("tieraccel_executions_total",
			"Dispatched executions by serving implementation.", implLabels, nil),
		sampled: prometheus.NewDesc("tieraccel_sampled_executions_total",
			"Executions for which both paths were timed.", keyLabels, nil),
		avgTime: prometheus.NewDesc("tieraccel_avg_time_ms",
			"Average observed execution time by implementation.", implLabels, nil),
		speedup: prometheus.NewDesc("tieraccel_speedup_avg",
			"Average fallback/native time ratio over sampled executions.", keyLabels, nil),
		timeSaved: prometheus.NewDesc("tieraccel_time_saved_ms_total",
			"Milliseconds saved by the native path over sampled executions.", keyLabels, nil),
		threshold: prometheus.NewDesc("tieraccel_threshold_size",
			"Learned input size above which the native path is preferred.", keyLabels, nil),
	}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.executions
	ch <- e.sampled
	ch <- e.avgTime
	ch <- e.speedup
	ch <- e.timeSaved
	ch <- e.threshold
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	for _, key := range e.counters.Keys() {
		m := e.counters.GetMetrics(key)
		labels := []string{key.Domain, key.Type, key.Operation}
		native := append(append([]string{}, labels...), Native.String())
		fallback := append(append([]string{}, labels...), Fallback.String())

		ch <- prometheus.MustNewConstMetric(e.executions, prometheus.CounterValue, float64(m.NativeExecutions), native...)
		ch <- prometheus.MustNewConstMetric(e.executions, prometheus.CounterValue, float64(m.FallbackExecutions), fallback...)
		ch <- prometheus.MustNewConstMetric(e.avgTime, prometheus.GaugeValue, m.AvgNativeTimeMs, native...)
		ch <- prometheus.MustNewConstMetric(e.avgTime, prometheus.GaugeValue, m.AvgFallbackTimeMs, fallback...)
		ch <- prometheus.MustNewConstMetric(e.sampled, prometheus.CounterValue, float64(m.SampledExecutions), labels...)
		ch <- prometheus.MustNewConstMetric(e.speedup, prometheus.GaugeValue, m.AvgSpeedup, labels...)
		ch <- prometheus.MustNewConstMetric(e.timeSaved, prometheus.CounterValue, m.TotalTimeSavedMs, labels...)
	}
	if e.thresholds == nil {
		return
	}
	for _, key := range e.thresholds.Keys() {
		ch <- prometheus.MustNewConstMetric(e.threshold, prometheus.GaugeValue,
			float64(e.thresholds.GetThreshold(key)), key.Domain, key.Type, key.Operation)
	}
}
