// Package supervisor orchestrates one startup cycle of a stack: it starts
// every service once its dependency edges are satisfied, gates
// service_healthy edges on readiness probes, records every lifecycle
// transition, and on failure blocks the transitive dependents and tears the
// cycle down in reverse start order.
package supervisor
