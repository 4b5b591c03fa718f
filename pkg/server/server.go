package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/gantry-sh/gantry/pkg/server/middleware"
	"github.com/gantry-sh/gantry/pkg/state"
)

// Supervisor is the running-stack surface the control API exposes.
type Supervisor interface {
	RunID() string
	Statuses() []state.ServiceState
	Status(name string) (state.ServiceState, bool)
	StopService(name string) error
	Down()
}

type Server struct {
	Supervisor Supervisor
	Store      state.Store
	Router     *mux.Router
	Auth       *middleware.TokenAuthenticator
	srv        *http.Server
}

func NewServer(
	sup Supervisor,
	store state.Store,
	addr string,
	apiKey string,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, handlers.RecoveryHandler()(router)),
		Addr:    addr,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Supervisor: sup,
		Store:      store,
		Router:     router,
		Auth:       middleware.NewTokenAuthenticator([]byte(apiKey)),
		srv:        srv,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
