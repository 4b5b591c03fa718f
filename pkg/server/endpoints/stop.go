package endpoints

import (
	"net/http"

	"github.com/gantry-sh/gantry/pkg/server"
)

// RegisterStopEndpoint registers the stack shutdown endpoint
func RegisterStopEndpoint(s *server.Server) {
	sup := s.Supervisor

	// POST /stop - Stop the whole stack (auth required)
	stop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Stop in the background so the response can be written before the
		// supervisor tears the server down.
		go sup.Down()
		respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
	})
	s.Router.Handle("/stop", s.Auth.Middleware(stop)).Methods("POST")
}
