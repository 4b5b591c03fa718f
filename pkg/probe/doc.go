// Package probe implements readiness probes: periodically executed checks
// that decide when a service may be considered available. A probe runs on a
// fixed interval with a per-attempt timeout; once it has failed its full
// retry budget outside the start period, the service is permanently unready
// for the current startup cycle.
package probe
