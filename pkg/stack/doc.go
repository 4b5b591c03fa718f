// Package stack loads, interpolates, and validates the declarative stack
// file: the services to supervise, the volumes they mount, and the
// dependency edges between them, each labeled with the readiness condition
// the dependency must reach before the dependent may start.
package stack
