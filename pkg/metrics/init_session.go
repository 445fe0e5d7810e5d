package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSessionMetrics() {
	r.SessionOpensTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsink_session_opens_total",
			Help: "Session establishment attempts",
		},
		[]string{"type", "status"},
	)

	r.SessionLatency = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphsink_session_latency_seconds",
			Help:    "Server-reported statement latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"label"},
	)
}
