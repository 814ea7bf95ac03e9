// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the service collectors.
type Metrics struct {
	Operations *prometheus.CounterVec
	ReportLoad *prometheus.CounterVec
	Activity   *prometheus.CounterVec
	Latency    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "operations_total",
			Help:      "Domain operations by name and outcome code.",
		}, []string{"operation", "outcome"}),
		ReportLoad: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "report_cache_total",
			Help:      "Report loads by kind and cache result.",
		}, []string{"report", "result"}),
		Activity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "activity_messages_total",
			Help:      "Activity messages consumed by kind and status.",
		}, []string{"kind", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "campus",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP latency by route template.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.Operations, m.ReportLoad, m.Activity, m.Latency)
	return m
}

// Outcome records one operation result. An empty code means success.
func (m *Metrics) Outcome(operation, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "ok"
	}
	m.Operations.WithLabelValues(operation, code).Inc()
}

// CacheResult records whether a report load was served from the cache.
func (m *Metrics) CacheResult(report string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ReportLoad.WithLabelValues(report, result).Inc()
}

// ActivityConsumed records a processed activity message.
func (m *Metrics) ActivityConsumed(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Activity.WithLabelValues(kind, status).Inc()
}
