// Package state defines the persistent record of supervisor activity: runs,
// per-service lifecycle states, probe attempts, and lifecycle events. The
// interfaces here decouple the supervisor and CLI from the storage backend;
// the gorm subpackage provides the database implementation.
package state
