package endpoints

import (
	"net/http"

	"github.com/gantry-sh/gantry/pkg/server"
)

// RegisterEventsEndpoints registers the run history endpoints
func RegisterEventsEndpoints(s *server.Server) {
	sup := s.Supervisor
	store := s.Store

	// GET /events - Lifecycle events of the current run (no auth required)
	s.Router.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			respondWithError(w, http.StatusNotImplemented, "no state store configured")
			return
		}
		evts, err := store.ListEvents(sup.RunID())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, evts)
	}).Methods("GET")

	// GET /probes - Probe attempts of the current run (no auth required)
	s.Router.HandleFunc("/probes", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			respondWithError(w, http.StatusNotImplemented, "no state store configured")
			return
		}
		attempts, err := store.ListProbeAttempts(sup.RunID(), r.URL.Query().Get("service"))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, attempts)
	}).Methods("GET")
}
