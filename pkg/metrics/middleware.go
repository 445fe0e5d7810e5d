package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// Middleware tracks admin HTTP request metrics
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r == nil {
			next.ServeHTTP(w, req)
			return
		}
		start := time.Now()

		r.HTTPRequestsInFlight.Inc()
		defer r.HTTPRequestsInFlight.Dec()

		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, req)

		r.RecordHTTPRequest(req.Method, req.URL.Path, strconv.Itoa(wrapper.statusCode), time.Since(start))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// RunSystemUpdater updates system metrics every interval until ctx is done
func (r *Registry) RunSystemUpdater(ctx context.Context, startTime time.Time, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.UpdateSystemMetrics(startTime)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.UpdateSystemMetrics(startTime)
		}
	}
}
