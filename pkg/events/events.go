package events

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gantry-sh/gantry/pkg/state"
)

// Severity levels for lifecycle events.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Event is one lifecycle occurrence.
type Event interface {
	// Kind identifies the event type, snake_cased.
	Kind() string
	// Service names the subject service; empty for run-level events.
	Service() string
	// Message is the human-readable line.
	Message() string
	// Severity classifies the event.
	Severity() Severity
	// Fields carries the structured attributes for the log.
	Fields() logrus.Fields
}

// RunStartedEvent marks the beginning of a startup cycle.
type RunStartedEvent struct {
	RunID     string
	StackPath string
	Services  int
}

func (e RunStartedEvent) Kind() string { return "run_started" }

func (e RunStartedEvent) Service() string { return "" }

func (e RunStartedEvent) Message() string {
	return fmt.Sprintf("run %s started for %s (%d services)", e.RunID, e.StackPath, e.Services)
}

func (e RunStartedEvent) Severity() Severity { return SeverityInfo }

func (e RunStartedEvent) Fields() logrus.Fields {
	return logrus.Fields{"run": e.RunID, "stack": e.StackPath, "services": e.Services}
}

// RunFinishedEvent closes a startup cycle.
type RunFinishedEvent struct {
	RunID   string
	Outcome string
	Err     error
}

func (e RunFinishedEvent) Kind() string { return "run_finished" }

func (e RunFinishedEvent) Service() string { return "" }

func (e RunFinishedEvent) Message() string {
	if e.Err != nil {
		return fmt.Sprintf("run %s finished: %s: %v", e.RunID, e.Outcome, e.Err)
	}
	return fmt.Sprintf("run %s finished: %s", e.RunID, e.Outcome)
}

func (e RunFinishedEvent) Severity() Severity {
	if e.Outcome == state.OutcomeFailed {
		return SeverityError
	}
	return SeverityInfo
}

func (e RunFinishedEvent) Fields() logrus.Fields {
	fields := logrus.Fields{"run": e.RunID, "outcome": e.Outcome}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	return fields
}

// ServiceStateEvent records a lifecycle transition of one service.
type ServiceStateEvent struct {
	RunID       string
	ServiceName string
	Status      state.Status
	PID         int
	ExitCode    *int
	Reason      string
}

func (e ServiceStateEvent) Kind() string { return "service_state" }

func (e ServiceStateEvent) Service() string { return e.ServiceName }

func (e ServiceStateEvent) Message() string {
	msg := fmt.Sprintf("service %s is %s", e.ServiceName, e.Status)
	if e.ExitCode != nil {
		msg += fmt.Sprintf(" (exit code %d)", *e.ExitCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e ServiceStateEvent) Severity() Severity {
	switch e.Status {
	case state.StatusFailed:
		return SeverityError
	case state.StatusBlocked, state.StatusExited:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func (e ServiceStateEvent) Fields() logrus.Fields {
	fields := logrus.Fields{"run": e.RunID, "service": e.ServiceName, "status": e.Status.String()}
	if e.PID != 0 {
		fields["pid"] = e.PID
	}
	if e.ExitCode != nil {
		fields["exit_code"] = *e.ExitCode
	}
	if e.Reason != "" {
		fields["reason"] = e.Reason
	}
	return fields
}

// ProbeAttemptEvent records one readiness probe attempt.
type ProbeAttemptEvent struct {
	RunID       string
	ServiceName string
	Attempt     int
	Retries     int
	Err         error
	Elapsed     time.Duration
}

func (e ProbeAttemptEvent) Kind() string { return "probe_attempt" }

func (e ProbeAttemptEvent) Service() string { return e.ServiceName }

func (e ProbeAttemptEvent) Message() string {
	if e.Err == nil {
		return fmt.Sprintf("probe for %s passed on attempt %d", e.ServiceName, e.Attempt)
	}
	return fmt.Sprintf("probe for %s failed attempt %d/%d: %v", e.ServiceName, e.Attempt, e.Retries, e.Err)
}

func (e ProbeAttemptEvent) Severity() Severity {
	if e.Err != nil {
		return SeverityWarning
	}
	return SeverityInfo
}

func (e ProbeAttemptEvent) Fields() logrus.Fields {
	fields := logrus.Fields{
		"run":     e.RunID,
		"service": e.ServiceName,
		"attempt": e.Attempt,
		"elapsed": e.Elapsed.String(),
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	return fields
}

// VolumeCreatedEvent records first-use materialization of a named volume.
type VolumeCreatedEvent struct {
	RunID      string
	VolumeName string
	Path       string
}

func (e VolumeCreatedEvent) Kind() string { return "volume_created" }

func (e VolumeCreatedEvent) Service() string { return "" }

func (e VolumeCreatedEvent) Message() string {
	return fmt.Sprintf("volume %s created at %s", e.VolumeName, e.Path)
}

func (e VolumeCreatedEvent) Severity() Severity { return SeverityInfo }

func (e VolumeCreatedEvent) Fields() logrus.Fields {
	return logrus.Fields{"run": e.RunID, "volume": e.VolumeName, "path": e.Path}
}
