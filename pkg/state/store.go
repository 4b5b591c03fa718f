package state

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run ID has no record.
var ErrRunNotFound = errors.New("run not found")

// Run outcomes.
const (
	OutcomeRunning   = "running"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeStopped   = "stopped"
)

// Run is one startup cycle of a stack.
type Run struct {
	ID         string     `json:"id"`
	StackPath  string     `json:"stack_path"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Outcome    string     `json:"outcome"`
	Error      string     `json:"error,omitempty"`
}

// ServiceState is the recorded lifecycle state of one service in a run.
type ServiceState struct {
	RunID     string    `json:"run_id"`
	Service   string    `json:"service"`
	Status    Status    `json:"status"`
	PID       int       `json:"pid,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProbeAttempt is one recorded readiness probe attempt.
type ProbeAttempt struct {
	RunID   string        `json:"run_id"`
	Service string        `json:"service"`
	Attempt int           `json:"attempt"`
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
	At      time.Time     `json:"at"`
}

// Event is one persisted lifecycle event.
type Event struct {
	ID       int64     `json:"id"`
	RunID    string    `json:"run_id"`
	Service  string    `json:"service,omitempty"`
	Kind     string    `json:"kind"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// RunStore records startup cycles.
type RunStore interface {
	// CreateRun records a new run with outcome running.
	CreateRun(run *Run) error

	// FinishRun closes a run with its outcome and optional error text.
	FinishRun(runID, outcome, errText string, finishedAt time.Time) error

	// GetRun fetches one run. Returns ErrRunNotFound if absent.
	GetRun(runID string) (*Run, error)

	// LatestRun returns the most recently started run, or ErrRunNotFound
	// when nothing has ever run.
	LatestRun() (*Run, error)

	// ListRuns returns runs most recent first, at most limit.
	ListRuns(limit int) ([]Run, error)
}

// ServiceStore records per-service lifecycle states.
type ServiceStore interface {
	// UpsertServiceState records the current state of a service in a run.
	UpsertServiceState(s *ServiceState) error

	// ListServiceStates returns the states of a run ordered by service name.
	ListServiceStates(runID string) ([]ServiceState, error)
}

// ProbeStore records readiness probe attempts.
type ProbeStore interface {
	// RecordProbeAttempt appends one attempt.
	RecordProbeAttempt(a *ProbeAttempt) error

	// ListProbeAttempts returns the attempts for a run in order, optionally
	// filtered to one service.
	ListProbeAttempts(runID, service string) ([]ProbeAttempt, error)
}

// EventStore records lifecycle events.
type EventStore interface {
	// AppendEvent appends one event.
	AppendEvent(e *Event) error

	// ListEvents returns a run's events in append order.
	ListEvents(runID string) ([]Event, error)
}

// HealthStore verifies backend connectivity.
type HealthStore interface {
	CheckConnectivity() error
}

// Store is the full persistence surface the supervisor and CLI use.
type Store interface {
	RunStore
	ServiceStore
	ProbeStore
	EventStore
	HealthStore
}
