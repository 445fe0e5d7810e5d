package metrics

import (
	"runtime"
	"time"
)

// All Record helpers are safe to call on a nil *Registry so components can
// run without metrics.

// RecordRecord counts a record handed to the sink
func (r *Registry) RecordRecord(label string) {
	if r == nil {
		return
	}
	r.RecordsTotal.WithLabelValues(label).Inc()
}

// RecordDropped counts a record that could not be converted
func (r *Registry) RecordDropped(label, reason string) {
	if r == nil {
		return
	}
	r.RecordsDroppedTotal.WithLabelValues(label, reason).Inc()
}

// RecordBatch records one executed batch with its outcome
func (r *Registry) RecordBatch(label, mode, status string, size int, duration time.Duration) {
	if r == nil {
		return
	}
	r.BatchesTotal.WithLabelValues(label, mode, status).Inc()
	r.BatchSize.WithLabelValues(label).Observe(float64(size))
	r.BatchDuration.WithLabelValues(label, mode).Observe(duration.Seconds())
}

// SetPending sets the number of buffered entities of one subtask
func (r *Registry) SetPending(label, subtask string, n int) {
	if r == nil {
		return
	}
	r.PendingEntities.WithLabelValues(label, subtask).Set(float64(n))
}

// RecordFailure counts a failure stored into a failure reference
func (r *Registry) RecordFailure(origin, label, subtask string) {
	if r == nil {
		return
	}
	r.SinkFailuresTotal.WithLabelValues(origin).Inc()
	r.SinkFailed.WithLabelValues(label, subtask).Set(1)
}

// RecordIntervalFlush counts a timer-driven flush
func (r *Registry) RecordIntervalFlush(label, status string) {
	if r == nil {
		return
	}
	r.IntervalFlushTotal.WithLabelValues(label, status).Inc()
}

// RecordCheckpoint records a checkpoint barrier
func (r *Registry) RecordCheckpoint(checkpointID int64, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.CheckpointsTotal.WithLabelValues(status).Inc()
	r.CheckpointDuration.Observe(duration.Seconds())
	if status == "success" {
		r.LastCheckpointID.Set(float64(checkpointID))
	}
}

// RecordSessionOpen counts a session establishment attempt
func (r *Registry) RecordSessionOpen(sessionType, status string) {
	if r == nil {
		return
	}
	r.SessionOpensTotal.WithLabelValues(sessionType, status).Inc()
}

// ObserveSessionLatency records a server-reported statement latency
func (r *Registry) ObserveSessionLatency(label string, latency time.Duration) {
	if r == nil || latency <= 0 {
		return
	}
	r.SessionLatency.WithLabelValues(label).Observe(latency.Seconds())
}

// RecordDeadLetter records a dead-letter write
func (r *Registry) RecordDeadLetter(backend, status string, bytes int) {
	if r == nil {
		return
	}
	r.DeadLetterWritesTotal.WithLabelValues(backend, status).Inc()
	if bytes > 0 {
		r.DeadLetterBytesTotal.WithLabelValues(backend).Add(float64(bytes))
	}
}

// RecordHTTPRequest records an admin HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// UpdateSystemMetrics refreshes uptime and Go runtime gauges
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	if r == nil {
		return
	}
	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}
