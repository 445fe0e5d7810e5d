package server

import (
	"net/http"

	gql "github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-graphsink/pkg/graphql"
	"github.com/dd0wney/cluso-graphsink/pkg/health"
	"github.com/dd0wney/cluso-graphsink/pkg/metrics"
)

// AdminDeps are the components exposed on the admin endpoint.
type AdminDeps struct {
	Health  *health.HealthChecker
	Metrics *metrics.Registry
	Schema  *gql.Schema
}

// NewAdminMux routes /health, /ready, /metrics and /graphql. Routes whose
// dependency is nil are not registered.
func NewAdminMux(deps AdminDeps) http.Handler {
	mux := http.NewServeMux()

	if deps.Health != nil {
		mux.Handle("/health", deps.Health.HTTPHandler())
		mux.Handle("/ready", deps.Health.ReadinessHandler())
	}
	if deps.Schema != nil {
		mux.Handle("/graphql", graphql.NewGraphQLHandler(*deps.Schema))
	}
	if deps.Metrics == nil {
		return mux
	}

	mux.Handle("/metrics", promhttp.HandlerFor(
		deps.Metrics.GetPrometheusRegistry(),
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	))
	return deps.Metrics.Middleware(mux)
}
