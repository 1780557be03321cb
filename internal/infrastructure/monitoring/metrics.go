// Package monitoring exposes Prometheus metrics for the HTTP surface, the
// shell and the replication layer.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Replication metrics
	PushesTotal     *prometheus.CounterVec
	FailedRecords   prometheus.Counter
	InboundChanges  *prometheus.CounterVec
	ReconcileRuns   *prometheus.CounterVec
	SyncFlag        prometheus.Gauge
	RemoteReachable prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// New creates a metrics collector on its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsdeck_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsdeck_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		PushesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsdeck_replication_pushes_total",
				Help: "Total number of snapshot pushes",
			},
			[]string{"status"},
		),
		FailedRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "opsdeck_replication_failed_records_total",
				Help: "Total number of records that failed to upsert",
			},
		),
		InboundChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsdeck_replication_inbound_changes_total",
				Help: "Inbound change notifications by outcome",
			},
			[]string{"outcome"}, // applied or discarded
		),
		ReconcileRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsdeck_replication_reconcile_runs_total",
				Help: "Poller reconcile runs by status",
			},
			[]string{"status"},
		),
		SyncFlag: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "opsdeck_replication_sync_flag",
				Help: "1 while a push is in flight or settling, 0 otherwise",
			},
		),
		RemoteReachable: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "opsdeck_replication_remote_reachable",
				Help: "1 when the initial remote load succeeded, 0 in local-only mode",
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "opsdeck_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPush records a completed push attempt.
func (m *Metrics) RecordPush(failed int) {
	if failed > 0 {
		m.PushesTotal.WithLabelValues("partial").Inc()
		m.FailedRecords.Add(float64(failed))
	} else {
		m.PushesTotal.WithLabelValues("ok").Inc()
	}
}
