package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gantry-sh/gantry/pkg/server"
)

// RegisterServicesEndpoints registers the service listing and control endpoints
func RegisterServicesEndpoints(s *server.Server) {
	sup := s.Supervisor

	// GET /services - List service states (no auth required)
	s.Router.HandleFunc("/services", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, sup.Statuses())
	}).Methods("GET")

	// GET /services/{service} - One service's state (no auth required)
	s.Router.HandleFunc("/services/{service}", func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["service"]
		st, ok := sup.Status(name)
		if !ok {
			respondWithError(w, http.StatusNotFound, "unknown service "+name)
			return
		}
		respondWithJSON(w, http.StatusOK, st)
	}).Methods("GET")

	// POST /services/{service}/stop - Stop one service (auth required)
	stop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["service"]
		if _, ok := sup.Status(name); !ok {
			respondWithError(w, http.StatusNotFound, "unknown service "+name)
			return
		}
		if err := sup.StopService(name); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
	})
	s.Router.Handle("/services/{service}/stop", s.Auth.Middleware(stop)).Methods("POST")
}
