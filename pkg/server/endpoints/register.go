// Package endpoints registers the control API handlers.
package endpoints

import (
	"github.com/gantry-sh/gantry/pkg/server"
)

// RegisterAll registers all control API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoint(srv)
	RegisterHealthEndpoint(srv)
	RegisterServicesEndpoints(srv)
	RegisterEventsEndpoints(srv)
	RegisterStopEndpoint(srv)
	RegisterMetricsEndpoint(srv)
}
