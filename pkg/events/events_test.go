package events

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantry-sh/gantry/pkg/state"
)

func TestEventMessages(t *testing.T) {
	exitCode := 3
	testCases := []struct {
		name     string
		event    Event
		message  string
		severity Severity
	}{
		{
			name:     "run started",
			event:    RunStartedEvent{RunID: "r1", StackPath: "stack.yml", Services: 4},
			message:  "run r1 started for stack.yml (4 services)",
			severity: SeverityInfo,
		},
		{
			name:     "run failed",
			event:    RunFinishedEvent{RunID: "r1", Outcome: state.OutcomeFailed, Err: errors.New("database is not ready")},
			message:  "run r1 finished: failed: database is not ready",
			severity: SeverityError,
		},
		{
			name:     "service healthy",
			event:    ServiceStateEvent{RunID: "r1", ServiceName: "database", Status: state.StatusHealthy},
			message:  "service database is healthy",
			severity: SeverityInfo,
		},
		{
			name:     "oneshot failed",
			event:    ServiceStateEvent{RunID: "r1", ServiceName: "test-runner", Status: state.StatusFailed, ExitCode: &exitCode},
			message:  "service test-runner is failed (exit code 3)",
			severity: SeverityError,
		},
		{
			name:     "blocked dependent",
			event:    ServiceStateEvent{RunID: "r1", ServiceName: "application", Status: state.StatusBlocked, Reason: "database never became healthy"},
			message:  "service application is blocked: database never became healthy",
			severity: SeverityWarning,
		},
		{
			name:     "probe failure",
			event:    ProbeAttemptEvent{RunID: "r1", ServiceName: "database", Attempt: 2, Retries: 5, Err: errors.New("connection refused")},
			message:  "probe for database failed attempt 2/5: connection refused",
			severity: SeverityWarning,
		},
		{
			name:     "probe pass",
			event:    ProbeAttemptEvent{RunID: "r1", ServiceName: "database", Attempt: 3},
			message:  "probe for database passed on attempt 3",
			severity: SeverityInfo,
		},
		{
			name:     "volume created",
			event:    VolumeCreatedEvent{RunID: "r1", VolumeName: "dbdata", Path: "/state/volumes/dbdata"},
			message:  "volume dbdata created at /state/volumes/dbdata",
			severity: SeverityInfo,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.message, tc.event.Message())
			assert.Equal(t, tc.severity, tc.event.Severity())
		})
	}
}

type memEventStore struct {
	events []state.Event
	err    error
}

func (m *memEventStore) AppendEvent(e *state.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *memEventStore) ListEvents(runID string) ([]state.Event, error) {
	return m.events, nil
}

func TestEmitterFansOut(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	store := &memEventStore{}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	em := &Emitter{
		RunID:  "r1",
		Logger: logger.WithField("component", "supervisor"),
		Store:  store,
		Now:    func() time.Time { return at },
	}

	em.Emit(ServiceStateEvent{RunID: "r1", ServiceName: "database", Status: state.StatusHealthy})

	require.Len(t, store.events, 1)
	assert.Equal(t, "r1", store.events[0].RunID)
	assert.Equal(t, "service_state", store.events[0].Kind)
	assert.Equal(t, "database", store.events[0].Service)
	assert.Equal(t, "info", store.events[0].Severity)
	assert.Equal(t, at, store.events[0].At)
	assert.Contains(t, buf.String(), "service database is healthy")
}

func TestEmitterSurvivesStoreErrors(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	em := &Emitter{
		RunID:  "r1",
		Logger: logrus.NewEntry(logger),
		Store:  &memEventStore{err: errors.New("disk full")},
	}

	// Must not panic or propagate.
	em.Emit(RunStartedEvent{RunID: "r1", StackPath: "stack.yml", Services: 1})
}

func TestNilEmitterDrops(t *testing.T) {
	var em *Emitter
	em.Emit(RunStartedEvent{RunID: "r1"})
}
