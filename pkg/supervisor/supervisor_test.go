package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantry-sh/gantry/pkg/probe"
	"github.com/gantry-sh/gantry/pkg/process"
	"github.com/gantry-sh/gantry/pkg/stack"
	"github.com/gantry-sh/gantry/pkg/state"
	"github.com/gantry-sh/gantry/pkg/volume"
)

const paperTradingStack = `
services:
  database:
    command: ["postgres"]
    healthcheck:
      test: ["TCP", "127.0.0.1:5432"]
      interval: 10s
      timeout: 5s
      retries: 5
  application:
    command: ["./bin/app", "serve"]
    depends_on:
      database:
        condition: service_healthy
  frontend:
    command: ["./bin/frontend"]
    depends_on:
      - application
  test-runner:
    command: ["./bin/mcp-tests"]
    oneshot: true
    depends_on:
      application:
        condition: service_started
`

// fakeHandle is a controllable process handle.
type fakeHandle struct {
	pid  int
	done chan struct{}
	exit process.ExitStatus
	once sync.Once
}

func newFakeHandle(pid int) *fakeHandle {
	return &fakeHandle{pid: pid, done: make(chan struct{})}
}

func (h *fakeHandle) PID() int {
	return h.pid
}

func (h *fakeHandle) Done() <-chan struct{} {
	return h.done
}

func (h *fakeHandle) Exit() process.ExitStatus {
	return h.exit
}

func (h *fakeHandle) Stop() error {
	h.exitWith(process.ExitStatus{Code: -1})
	return nil
}

func (h *fakeHandle) exitWith(status process.ExitStatus) {
	h.once.Do(func() {
		h.exit = status
		close(h.done)
	})
}

// fakeLauncher records launch order and hands out controllable handles.
type fakeLauncher struct {
	mu      sync.Mutex
	order   []string
	times   map[string]time.Time
	handles map[string]*fakeHandle
	failing map[string]error
	nextPID int

	// oneshotExit maps a service name to its scripted exit code.
	oneshotExit map[string]int
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{
		times:       map[string]time.Time{},
		handles:     map[string]*fakeHandle{},
		failing:     map[string]error{},
		oneshotExit: map[string]int{},
		nextPID:     100,
	}
}

func (l *fakeLauncher) Launch(spec process.Spec) (process.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.failing[spec.Name]; err != nil {
		return nil, err
	}

	l.order = append(l.order, spec.Name)
	l.times[spec.Name] = time.Now()
	l.nextPID++
	h := newFakeHandle(l.nextPID)
	l.handles[spec.Name] = h

	if code, ok := l.oneshotExit[spec.Name]; ok {
		go func() {
			time.Sleep(5 * time.Millisecond)
			h.exitWith(process.ExitStatus{Code: code})
		}()
	}
	return h, nil
}

func (l *fakeLauncher) launched(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.times[name]
	return ok
}

func (l *fakeLauncher) launchOrder() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

func (l *fakeLauncher) launchTime(t *testing.T, name string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	at, ok := l.times[name]
	if !ok {
		t.Fatalf("service %s was never launched", name)
	}
	return at
}

// scriptedProbeRunner passes on a scripted attempt, or exhausts its budget.
type scriptedProbeRunner struct {
	service  string
	passOn   int // 0 never passes
	retries  int
	interval time.Duration
	obs      probe.Observer

	mu       sync.Mutex
	passedAt time.Time
}

func (r *scriptedProbeRunner) Run(ctx context.Context) error {
	start := time.Now()
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.interval):
		}

		if r.passOn > 0 && attempt >= r.passOn {
			if r.obs != nil {
				r.obs.ProbeAttempt(r.service, attempt, nil, time.Millisecond)
			}
			r.mu.Lock()
			r.passedAt = time.Now()
			r.mu.Unlock()
			return nil
		}

		err := errors.New("connection refused")
		if r.obs != nil {
			r.obs.ProbeAttempt(r.service, attempt, err, time.Millisecond)
		}
		if attempt >= r.retries {
			return &probe.UnreadyError{
				Service:  r.service,
				Attempts: attempt,
				Elapsed:  time.Since(start),
				LastErr:  err,
			}
		}
	}
}

func (r *scriptedProbeRunner) passedTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.passedAt
}

type testHarness struct {
	sup      *Supervisor
	launcher *fakeLauncher
	runners  map[string]*scriptedProbeRunner
}

// newHarness builds a supervisor over the paper-trading topology with a
// scripted database probe.
func newHarness(t *testing.T, dbPassOn int) *testHarness {
	t.Helper()
	st, err := stack.Parse([]byte(paperTradingStack), nil)
	require.NoError(t, err)
	require.NoError(t, st.Validate())

	launcher := newFakeLauncher()
	launcher.oneshotExit["test-runner"] = 0
	runners := map[string]*scriptedProbeRunner{}

	sup, err := New(Options{
		Stack:    st,
		Launcher: launcher,
		NewProbeRunner: func(service string, hc *stack.Healthcheck, obs probe.Observer) (probeRunner, error) {
			r := &scriptedProbeRunner{
				service:  service,
				passOn:   dbPassOn,
				retries:  hc.Retries,
				interval: 2 * time.Millisecond,
				obs:      obs,
			}
			runners[service] = r
			return r, nil
		},
	})
	require.NoError(t, err)
	return &testHarness{sup: sup, launcher: launcher, runners: runners}
}

func TestUpOrdersStartupByReadiness(t *testing.T) {
	h := newHarness(t, 3)

	err := h.sup.Up(context.Background())
	require.NoError(t, err)

	order := h.launcher.launchOrder()
	require.Equal(t, "database", order[0])

	// The application starts strictly after the probe's third attempt
	// succeeded, never before.
	dbPassed := h.runners["database"].passedTime()
	require.False(t, dbPassed.IsZero())
	assert.False(t, h.launcher.launchTime(t, "application").Before(dbPassed),
		"application must not start before the database probe passes")

	// Frontend and test-runner start only after the application.
	appStarted := h.launcher.launchTime(t, "application")
	assert.False(t, h.launcher.launchTime(t, "frontend").Before(appStarted))
	assert.False(t, h.launcher.launchTime(t, "test-runner").Before(appStarted))

	status, ok := h.sup.Status("database")
	require.True(t, ok)
	assert.Equal(t, state.StatusHealthy, status.Status)

	status, _ = h.sup.Status("test-runner")
	assert.Equal(t, state.StatusCompleted, status.Status)

	h.sup.Down()
}

func TestUpFailsWhenProbeExhaustsRetries(t *testing.T) {
	h := newHarness(t, 0) // never passes

	err := h.sup.Up(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStartupFailed))
	assert.True(t, errors.Is(err, probe.ErrUnready))
	assert.Contains(t, err.Error(), "database")

	// The application must never have been launched, nor its dependents.
	assert.False(t, h.launcher.launched("application"))
	assert.False(t, h.launcher.launched("frontend"))
	assert.False(t, h.launcher.launched("test-runner"))

	status, _ := h.sup.Status("database")
	assert.Equal(t, state.StatusFailed, status.Status)
	status, _ = h.sup.Status("application")
	assert.Equal(t, state.StatusBlocked, status.Status)
	status, _ = h.sup.Status("frontend")
	assert.Equal(t, state.StatusBlocked, status.Status)
}

func TestUpBlocksDependentsOnLaunchFailure(t *testing.T) {
	h := newHarness(t, 1)
	h.launcher.mu.Lock()
	h.launcher.failing["application"] = fmt.Errorf("no such binary")
	h.launcher.mu.Unlock()

	err := h.sup.Up(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application")

	assert.False(t, h.launcher.launched("frontend"))
	assert.False(t, h.launcher.launched("test-runner"))

	status, _ := h.sup.Status("application")
	assert.Equal(t, state.StatusFailed, status.Status)
	status, _ = h.sup.Status("frontend")
	assert.Equal(t, state.StatusBlocked, status.Status)
}

func TestUpFailsWhenOneshotExitsNonzero(t *testing.T) {
	h := newHarness(t, 1)
	h.launcher.mu.Lock()
	h.launcher.oneshotExit["test-runner"] = 4
	h.launcher.mu.Unlock()

	err := h.sup.Up(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test-runner")

	status, _ := h.sup.Status("test-runner")
	assert.Equal(t, state.StatusFailed, status.Status)
	require.NotNil(t, status.ExitCode)
	assert.Equal(t, 4, *status.ExitCode)
}

func TestUpFailsWhenDaemonDiesBeforeHealthy(t *testing.T) {
	h := newHarness(t, 20) // probe would pass far too late

	go func() {
		// Let the database launch, then kill it mid-probe.
		for !h.launcher.launched("database") {
			time.Sleep(time.Millisecond)
		}
		h.launcher.mu.Lock()
		handle := h.launcher.handles["database"]
		h.launcher.mu.Unlock()
		handle.exitWith(process.ExitStatus{Code: 1})
	}()

	err := h.sup.Up(context.Background())
	require.Error(t, err)
	assert.False(t, h.launcher.launched("application"))

	status, _ := h.sup.Status("database")
	assert.Equal(t, state.StatusExited, status.Status)
}

func TestStatusesSnapshot(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.sup.Up(context.Background()))

	statuses := h.sup.Statuses()
	require.Len(t, statuses, 4)
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Service)
	}
	assert.Equal(t, []string{"application", "database", "frontend", "test-runner"}, names)

	h.sup.Down()
}

func TestDownStopsServicesInReverseStartOrder(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.sup.Up(context.Background()))

	h.sup.Down()

	for _, name := range []string{"database", "application", "frontend"} {
		h.launcher.mu.Lock()
		handle := h.launcher.handles[name]
		h.launcher.mu.Unlock()
		select {
		case <-handle.Done():
		default:
			t.Fatalf("service %s still running after Down", name)
		}
	}
}

// recordingStore keeps everything the supervisor persists in memory.
type recordingStore struct {
	mu     sync.Mutex
	runs   map[string]state.Run
	events []state.Event
}

func newRecordingStore() *recordingStore {
	return &recordingStore{runs: map[string]state.Run{}}
}

func (r *recordingStore) CreateRun(run *state.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

func (r *recordingStore) FinishRun(runID, outcome, errText string, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run := r.runs[runID]
	run.Outcome = outcome
	run.Error = errText
	run.FinishedAt = &finishedAt
	r.runs[runID] = run
	return nil
}

func (r *recordingStore) GetRun(runID string) (*state.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return nil, state.ErrRunNotFound
	}
	return &run, nil
}

func (r *recordingStore) LatestRun() (*state.Run, error)          { return nil, state.ErrRunNotFound }
func (r *recordingStore) ListRuns(limit int) ([]state.Run, error) { return nil, nil }

func (r *recordingStore) UpsertServiceState(s *state.ServiceState) error { return nil }
func (r *recordingStore) ListServiceStates(runID string) ([]state.ServiceState, error) {
	return nil, nil
}

func (r *recordingStore) RecordProbeAttempt(a *state.ProbeAttempt) error { return nil }
func (r *recordingStore) ListProbeAttempts(runID, service string) ([]state.ProbeAttempt, error) {
	return nil, nil
}

func (r *recordingStore) AppendEvent(e *state.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *recordingStore) ListEvents(runID string) ([]state.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.Event(nil), r.events...), nil
}

func (r *recordingStore) CheckConnectivity() error { return nil }

func (r *recordingStore) eventsOfKind(kind string) []state.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []state.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingStore) outcome(runID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[runID].Outcome
}

const volumeStack = `
services:
  database:
    command: ["postgres"]
    volumes:
      - dbdata:/var/lib/pg
volumes:
  dbdata: {}
`

func TestUpEmitsVolumeCreatedOnFirstRunOnly(t *testing.T) {
	stateDir := t.TempDir()
	stackDir := t.TempDir()
	st, err := stack.Parse([]byte(volumeStack), nil)
	require.NoError(t, err)
	require.NoError(t, st.Validate())

	runUp := func() *recordingStore {
		store := newRecordingStore()
		sup, err := New(Options{
			Stack:    st,
			Launcher: newFakeLauncher(),
			Volumes:  volume.NewManager(stateDir, stackDir),
			Store:    store,
		})
		require.NoError(t, err)
		require.NoError(t, sup.Up(context.Background()))
		sup.Down()
		return store
	}

	created := runUp().eventsOfKind("volume_created")
	require.Len(t, created, 1)
	assert.Contains(t, created[0].Message, "dbdata")

	// The directory survives Down, so a second run creates nothing.
	assert.Empty(t, runUp().eventsOfKind("volume_created"))
}

func TestDoneClosesOnceDownFinishes(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.sup.Up(context.Background()))

	select {
	case <-h.sup.Done():
		t.Fatal("done closed before Down was called")
	default:
	}

	h.sup.Down()
	select {
	case <-h.sup.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed after Down returned")
	}
}

const oneshotOnlyStack = `
services:
  migrate:
    command: ["./bin/migrate"]
    oneshot: true
  seed:
    command: ["./bin/seed"]
    oneshot: true
    depends_on:
      migrate:
        condition: service_completed_successfully
`

func TestAllOneshotStackRecordsSuccess(t *testing.T) {
	st, err := stack.Parse([]byte(oneshotOnlyStack), nil)
	require.NoError(t, err)
	require.NoError(t, st.Validate())

	launcher := newFakeLauncher()
	launcher.oneshotExit["migrate"] = 0
	launcher.oneshotExit["seed"] = 0
	store := newRecordingStore()

	sup, err := New(Options{Stack: st, Launcher: launcher, Store: store})
	require.NoError(t, err)
	require.NoError(t, sup.Up(context.Background()))

	assert.Equal(t, state.OutcomeSucceeded, store.outcome(sup.RunID()))
	require.Len(t, store.eventsOfKind("run_finished"), 1)

	// A later Down must not rewrite the closed run as stopped.
	sup.Down()
	assert.Equal(t, state.OutcomeSucceeded, store.outcome(sup.RunID()))
	assert.Len(t, store.eventsOfKind("run_finished"), 1)
}

func TestStopService(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.sup.Up(context.Background()))
	defer h.sup.Down()

	assert.Error(t, h.sup.StopService("no-such-service"))
	assert.NoError(t, h.sup.StopService("frontend"))

	// Oneshot already completed; stopping it is an error.
	assert.Error(t, h.sup.StopService("test-runner"))
}
