// Package server provides the supervisor's control API.
//
// While a stack is up, gantryctl serves a small HTTP API so other invocations
// (ps, wait, events, down) and external tools can observe and control the
// running supervisor. It uses gorilla/mux for routing and logs requests
// through gorilla/handlers.
//
// # Server Setup
//
//	srv := server.NewServer(sup, store, cfg.ListenAddress, apiKey)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// Read endpoints are open; mutating endpoints (stopping services, shutting
// the stack down) require a bearer token minted with `gantryctl token create`
// and verified against the configured API key.
//
// A discovery file under the state directory records the listen address and
// PID of the serving supervisor so later gantryctl invocations can find it.
package server
