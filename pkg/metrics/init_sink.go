package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSinkMetrics() {
	r.RecordsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsink_records_total",
			Help: "Total number of records handed to the sink",
		},
		[]string{"label"},
	)

	r.RecordsDroppedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsink_records_dropped_total",
			Help: "Records dropped because they could not be converted into entities",
		},
		[]string{"label", "reason"}, // short_row, missing_id, invalid_id, field_type, invalid_rank
	)

	r.BatchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsink_batches_total",
			Help: "Total number of executed batches",
		},
		[]string{"label", "mode", "status"}, // success, failed, error
	)

	r.BatchSize = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphsink_batch_size",
			Help:    "Number of entities per executed batch",
			Buckets: []float64{1, 10, 100, 500, 1000, 2000, 5000, 10000},
		},
		[]string{"label"},
	)

	r.BatchDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphsink_batch_duration_seconds",
			Help:    "Time spent rendering and executing a batch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"label", "mode"},
	)

	r.PendingEntities = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graphsink_pending_entities",
			Help: "Entities buffered and not yet executed",
		},
		[]string{"label", "subtask"},
	)

	r.SinkFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsink_failures_total",
			Help: "Failures recorded into a sink's failure reference",
		},
		[]string{"origin"}, // open, invoke, flush, interval
	)

	r.SinkFailed = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graphsink_failed",
			Help: "Whether a sink subtask has recorded a fatal failure (1=yes, 0=no)",
		},
		[]string{"label", "subtask"},
	)

	r.IntervalFlushTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsink_interval_flushes_total",
			Help: "Flushes triggered by the batch interval timer",
		},
		[]string{"label", "status"},
	)
}
