package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus registry served on /metrics. Besides the
// collectors handed to NewMetrics it tracks:
//   - Active requests (gauge)
//   - Total requests by status code (counter)
//   - Go runtime and process metrics
//
// Each Metrics has its own registry, so several servers can coexist in one
// process.
type Metrics struct {
	registry       *prometheus.Registry
	activeRequests prometheus.Gauge
	totalRequests  *prometheus.CounterVec
	handler        http.Handler
}

// NewMetrics creates a registry holding the server metrics, the Go and
// process collectors, and extra.
func NewMetrics(extra ...prometheus.Collector) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tieraccel_http_active_requests",
			Help: "Current number of active diagnostics requests.",
		}),
		totalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tieraccel_http_requests_total",
			Help: "Total number of diagnostics requests by status code.",
		}, []string{"code"}),
	}
	registry.MustRegister(
		m.activeRequests,
		m.totalRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registry.MustRegister(extra...)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WritePrometheus writes metrics in Prometheus text format to the response.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// handleMetrics is the HTTP handler for the /metrics endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.WritePrometheus(w, r)
}

// metricsMiddleware tracks active requests and counts responses by status.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.activeRequests.Inc()
		defer s.metrics.activeRequests.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.totalRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	}
}
