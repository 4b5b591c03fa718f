package state

//go:generate go run github.com/dmarkham/enumer -type Status -trimprefix Status -transform snake -json -output status.gen.go

// Status is the lifecycle state of a service within a run. Transitions move
// forward only: pending → waiting → starting → started, then healthy for
// probed services, completed for oneshots, exited or failed on process
// death, and blocked for services whose prerequisites never became ready.
type Status int

const (
	// StatusPending is the initial state before the scheduler has looked at
	// the service.
	StatusPending Status = iota

	// StatusWaiting means at least one dependency edge is unsatisfied.
	StatusWaiting

	// StatusStarting means the launch was initiated.
	StatusStarting

	// StatusStarted means the process is running.
	StatusStarted

	// StatusHealthy means the readiness probe has passed.
	StatusHealthy

	// StatusCompleted means a oneshot exited zero.
	StatusCompleted

	// StatusExited means a daemon process exited on its own.
	StatusExited

	// StatusFailed means the service failed: launch error, nonzero oneshot
	// exit, or probe exhaustion.
	StatusFailed

	// StatusBlocked means the service was never launched because a
	// prerequisite failed.
	StatusBlocked
)

// Terminal reports whether no further transition can happen.
func (i Status) Terminal() bool {
	switch i {
	case StatusCompleted, StatusExited, StatusFailed, StatusBlocked:
		return true
	}
	return false
}

// Running reports whether the process is up.
func (i Status) Running() bool {
	return i == StatusStarted || i == StatusHealthy
}
