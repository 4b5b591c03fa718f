// Package main provides gantryctl, the CLI for the gantry process-stack
// supervisor.
//
// Gantry runs a declared stack of host processes in dependency order, gating
// each start on the readiness of the services it depends on.
//
// # Architecture
//
// The supervisor is organized into several packages:
//
//   - pkg/stack: Stack file parsing, interpolation, and validation
//   - pkg/stack/graph: Dependency graph and start ordering
//   - pkg/probe: Readiness probes (CMD, HTTP, TCP, POSTGRES)
//   - pkg/process: Process launching and lifecycle
//   - pkg/volume: Named volumes and host binds
//   - pkg/supervisor: Startup orchestration
//   - pkg/state: Run and service state persistence
//   - pkg/server: Control API served while a stack is up
//   - pkg/config: Supervisor configuration
//
// # Quick Start
//
//	# Validate the stack file
//	gantryctl config validate -f stack.yml
//
//	# Bring the stack up
//	gantryctl up -f stack.yml
//
//	# In another terminal: inspect and stop
//	gantryctl ps
//	gantryctl wait application --condition service_healthy
//	gantryctl down
//
// # Environment Variables
//
//   - GANTRY_STATE_DIR: State directory (default: ~/.gantry)
//   - GANTRY_DATABASE_URL: PostgreSQL URL for shared state (default: embedded SQLite)
//   - GANTRY_LISTEN_ADDRESS: Control API address (default: 127.0.0.1:7867)
//   - GANTRY_LOG_LEVEL: Log level (debug, info, warn, error)
//   - GANTRY_API_KEY: Key that signs control API tokens
//
// For more information, see https://github.com/gantry-sh/gantry
package main
