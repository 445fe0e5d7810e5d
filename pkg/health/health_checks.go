package health

import (
	"context"
	"runtime"
	"time"

	"github.com/dd0wney/cluso-graphsink/pkg/executor"
	"github.com/dd0wney/cluso-graphsink/pkg/sink"
)

// StatusSource lists the current state of every sink subtask.
type StatusSource func() []sink.Status

// SinkCheck is unhealthy once any subtask has recorded a failure and degraded
// while any subtask holds more than batchSize pending entities.
func SinkCheck(source StatusSource, batchSize int) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "sink",
			Status:  StatusHealthy,
			Message: "All subtasks writing",
			Details: make(map[string]any),
		}

		statuses := source()
		failed, backlogged := 0, 0
		for _, st := range statuses {
			if st.Failed {
				failed++
				check.Details[st.Subtask] = st.Failure
			} else if st.Pending > batchSize {
				backlogged++
				check.Details[st.Subtask] = st.Pending
			}
		}
		check.Details["subtasks"] = len(statuses)

		switch {
		case failed > 0:
			check.Status = StatusUnhealthy
			check.Message = "Sink failure recorded"
		case backlogged > 0:
			check.Status = StatusDegraded
			check.Message = "Pending entities above batch size"
		}
		return check
	}
}

// SessionCheck opens and closes a session to prove the graph database is
// reachable.
func SessionCheck(factory executor.SessionFactory, timeout time.Duration) CheckFunc {
	return func() Check {
		check := Check{Name: "session"}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s, err := factory.Open(ctx)
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		_ = s.Close()

		check.Status = StatusHealthy
		check.Message = "Connected"
		return check
	}
}

// MemoryCheck reports degraded when the heap exceeds limitBytes. Zero
// disables the limit.
func MemoryCheck(limitBytes uint64) CheckFunc {
	return func() Check {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		check := Check{
			Name:    "memory",
			Status:  StatusHealthy,
			Message: "Memory usage normal",
			Details: map[string]any{
				"alloc_bytes": m.Alloc,
				"sys_bytes":   m.Sys,
				"goroutines":  runtime.NumGoroutine(),
			},
		}
		if limitBytes > 0 && m.Alloc > limitBytes {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		}
		return check
	}
}
