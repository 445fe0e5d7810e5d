package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the connector
type Registry struct {
	// Record Metrics
	RecordsTotal        *prometheus.CounterVec
	RecordsDroppedTotal *prometheus.CounterVec

	// Batch Metrics
	BatchesTotal       *prometheus.CounterVec
	BatchSize          *prometheus.HistogramVec
	BatchDuration      *prometheus.HistogramVec
	PendingEntities    *prometheus.GaugeVec
	SinkFailuresTotal  *prometheus.CounterVec
	SinkFailed         *prometheus.GaugeVec
	IntervalFlushTotal *prometheus.CounterVec

	// Checkpoint Metrics
	CheckpointsTotal   *prometheus.CounterVec
	CheckpointDuration prometheus.Histogram
	LastCheckpointID   prometheus.Gauge

	// Session Metrics
	SessionOpensTotal *prometheus.CounterVec
	SessionLatency    *prometheus.HistogramVec

	// Dead-letter Metrics
	DeadLetterWritesTotal *prometheus.CounterVec
	DeadLetterBytesTotal  *prometheus.CounterVec

	// Admin HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initSinkMetrics()
	r.initCheckpointMetrics()
	r.initSessionMetrics()
	r.initDeadLetterMetrics()
	r.initHTTPMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
