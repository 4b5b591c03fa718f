package endpoints

import (
	"errors"
	"time"

	"github.com/gantry-sh/gantry/pkg/state"
)

// fakeSupervisor implements server.Supervisor for handler tests.
type fakeSupervisor struct {
	runID    string
	statuses []state.ServiceState
	stopped  []string
	stopErr  error
	downed   bool
}

func (f *fakeSupervisor) RunID() string                  { return f.runID }
func (f *fakeSupervisor) Statuses() []state.ServiceState { return f.statuses }

func (f *fakeSupervisor) Status(name string) (state.ServiceState, bool) {
	for _, st := range f.statuses {
		if st.Service == name {
			return st, true
		}
	}
	return state.ServiceState{}, false
}

func (f *fakeSupervisor) StopService(name string) error {
	if f.stopErr != nil {
		return f.stopErr
	}
	f.stopped = append(f.stopped, name)
	return nil
}

func (f *fakeSupervisor) Down() { f.downed = true }

// fakeStore implements state.Store over fixed fixtures.
type fakeStore struct {
	events   []state.Event
	attempts []state.ProbeAttempt
	healthy  bool
}

func (f *fakeStore) CreateRun(run *state.Run) error { return nil }

func (f *fakeStore) FinishRun(runID, outcome, errText string, finishedAt time.Time) error {
	return nil
}

func (f *fakeStore) GetRun(runID string) (*state.Run, error) { return nil, state.ErrRunNotFound }
func (f *fakeStore) LatestRun() (*state.Run, error)          { return nil, state.ErrRunNotFound }
func (f *fakeStore) ListRuns(limit int) ([]state.Run, error) { return nil, nil }

func (f *fakeStore) UpsertServiceState(s *state.ServiceState) error { return nil }

func (f *fakeStore) ListServiceStates(runID string) ([]state.ServiceState, error) {
	return nil, nil
}

func (f *fakeStore) RecordProbeAttempt(a *state.ProbeAttempt) error { return nil }

func (f *fakeStore) ListProbeAttempts(runID, service string) ([]state.ProbeAttempt, error) {
	if service == "" {
		return f.attempts, nil
	}
	var out []state.ProbeAttempt
	for _, a := range f.attempts {
		if a.Service == service {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendEvent(e *state.Event) error { return nil }

func (f *fakeStore) ListEvents(runID string) ([]state.Event, error) {
	return f.events, nil
}

func (f *fakeStore) CheckConnectivity() error {
	if f.healthy {
		return nil
	}
	return errors.New("connectivity check failed")
}
