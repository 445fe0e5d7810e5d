package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initDeadLetterMetrics() {
	r.DeadLetterWritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsink_deadletter_writes_total",
			Help: "Failed batches handed to a dead-letter backend",
		},
		[]string{"backend", "status"},
	)

	r.DeadLetterBytesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsink_deadletter_bytes_total",
			Help: "Compressed bytes written by a dead-letter backend",
		},
		[]string{"backend"},
	)
}
