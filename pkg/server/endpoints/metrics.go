package endpoints

import (
	"github.com/gantry-sh/gantry/pkg/metrics"
	"github.com/gantry-sh/gantry/pkg/server"
)

// RegisterMetricsEndpoint registers the Prometheus metrics endpoint
func RegisterMetricsEndpoint(s *server.Server) {
	// GET /metrics - Prometheus exposition (no auth required)
	s.Router.Handle("/metrics", metrics.Handler()).Methods("GET")
}
