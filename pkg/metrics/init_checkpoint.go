package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCheckpointMetrics() {
	r.CheckpointsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsink_checkpoints_total",
			Help: "Total number of checkpoint barriers handled",
		},
		[]string{"status"}, // success, failed
	)

	r.CheckpointDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphsink_checkpoint_duration_seconds",
			Help:    "Duration of a checkpoint barrier across all subtasks",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		},
	)

	r.LastCheckpointID = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphsink_last_checkpoint_id",
			Help: "Identifier of the last successful checkpoint",
		},
	)
}
