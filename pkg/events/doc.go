// Package events defines the typed lifecycle events the supervisor emits:
// run start and finish, service state changes, probe attempts, and volume
// creation. Events fan out to the structured log and to the state store, so
// a run's history can be inspected after the fact.
package events
