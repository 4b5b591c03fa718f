package endpoints

import (
	"net/http"

	"github.com/gantry-sh/gantry/pkg/server"
	"github.com/gantry-sh/gantry/pkg/version"
)

// StatusResponse represents the response from /
type StatusResponse struct {
	Version  string `json:"version"`
	RunID    string `json:"run_id"`
	Services int    `json:"services"`
	Running  int    `json:"running"`
}

// RegisterStatusEndpoint registers the status endpoint
func RegisterStatusEndpoint(s *server.Server) {
	sup := s.Supervisor

	// GET / - Supervisor status (no auth required)
	s.Router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		statuses := sup.Statuses()
		running := 0
		for _, st := range statuses {
			if st.Status.Running() {
				running++
			}
		}
		respondWithJSON(w, http.StatusOK, StatusResponse{
			Version:  version.Version,
			RunID:    sup.RunID(),
			Services: len(statuses),
			Running:  running,
		})
	}).Methods("GET")
}

// RegisterHealthEndpoint registers the health endpoint
func RegisterHealthEndpoint(s *server.Server) {
	store := s.Store

	// GET /healthz - Supervisor liveness and state store connectivity
	s.Router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.CheckConnectivity(); err != nil {
				respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "error",
					"error":  "state store connectivity check failed",
				})
				return
			}
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
}
