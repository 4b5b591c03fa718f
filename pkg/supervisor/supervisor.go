package supervisor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gantry-sh/gantry/pkg/events"
	"github.com/gantry-sh/gantry/pkg/log"
	"github.com/gantry-sh/gantry/pkg/metrics"
	"github.com/gantry-sh/gantry/pkg/probe"
	"github.com/gantry-sh/gantry/pkg/process"
	"github.com/gantry-sh/gantry/pkg/stack"
	"github.com/gantry-sh/gantry/pkg/stack/graph"
	"github.com/gantry-sh/gantry/pkg/state"
	"github.com/gantry-sh/gantry/pkg/volume"
)

// ErrStartupFailed marks a startup cycle that could not bring every service
// to its goal state.
var ErrStartupFailed = errors.New("startup failed")

// errDependencyFailed is the secondary failure of a blocked service; the
// root cause is reported by the service that actually failed.
var errDependencyFailed = errors.New("dependency failed")

// probeRunner is the part of probe.Runner the supervisor drives; tests
// substitute scripted implementations.
type probeRunner interface {
	Run(ctx context.Context) error
}

// Options configures a Supervisor.
type Options struct {
	Stack    *stack.Stack
	Graph    *graph.Graph
	Launcher process.Launcher
	Volumes  *volume.Manager
	Store    state.Store // optional; nil disables persistence
	Logger   *logrus.Entry
	LogDir   string // per-service process logs
	RunID    string // assigned when empty

	// NewProbeRunner overrides probe construction for tests.
	NewProbeRunner func(service string, hc *stack.Healthcheck, obs probe.Observer) (probeRunner, error)
}

// Supervisor runs one startup cycle of a stack.
type Supervisor struct {
	runID    string
	stack    *stack.Stack
	graph    *graph.Graph
	launcher process.Launcher
	volumes  *volume.Manager
	store    state.Store
	emitter  *events.Emitter
	logger   *logrus.Entry
	logDir   string

	newProbeRunner func(service string, hc *stack.Healthcheck, obs probe.Observer) (probeRunner, error)

	mu       sync.Mutex
	services map[string]*serviceRun
	started  []string // launch order, for reverse teardown
	downOnce sync.Once
	done     chan struct{} // closed once Down has torn the run down
	finished bool
}

// serviceRun is the in-flight state of one service.
type serviceRun struct {
	name    string
	service *stack.Service
	status  state.ServiceState
	handle  process.Handle

	// Gates close when the named condition is reached; failed closes on any
	// terminal failure. Dependents select on these.
	startedGate   chan struct{}
	healthyGate   chan struct{}
	completedGate chan struct{}
	failedGate    chan struct{}

	startedOnce   sync.Once
	healthyOnce   sync.Once
	completedOnce sync.Once
	failedOnce    sync.Once
}

func (sr *serviceRun) gateFor(cond stack.Condition) <-chan struct{} {
	switch cond {
	case stack.ConditionServiceHealthy:
		return sr.healthyGate
	case stack.ConditionServiceCompletedSuccessfully:
		return sr.completedGate
	default:
		return sr.startedGate
	}
}

// New builds a Supervisor for a validated stack.
func New(opts Options) (*Supervisor, error) {
	if opts.Stack == nil {
		return nil, errors.New("supervisor needs a stack")
	}
	g := opts.Graph
	if g == nil {
		var err error
		g, err = graph.New(opts.Stack)
		if err != nil {
			return nil, err
		}
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithComponent("supervisor")
	}
	launcher := opts.Launcher
	if launcher == nil {
		launcher = process.NewExecLauncher()
	}
	newProbeRunner := opts.NewProbeRunner
	if newProbeRunner == nil {
		newProbeRunner = func(service string, hc *stack.Healthcheck, obs probe.Observer) (probeRunner, error) {
			return probe.NewRunner(service, hc, obs)
		}
	}

	s := &Supervisor{
		runID:          runID,
		stack:          opts.Stack,
		graph:          g,
		launcher:       launcher,
		volumes:        opts.Volumes,
		store:          opts.Store,
		logger:         logger.WithField("run", runID),
		logDir:         opts.LogDir,
		newProbeRunner: newProbeRunner,
		services:       make(map[string]*serviceRun),
		done:           make(chan struct{}),
	}
	s.emitter = &events.Emitter{RunID: runID, Logger: s.logger, Store: eventSink(opts.Store)}

	for _, name := range g.Nodes() {
		s.services[name] = &serviceRun{
			name:    name,
			service: opts.Stack.Services[name],
			status: state.ServiceState{
				RunID:   runID,
				Service: name,
				Status:  state.StatusPending,
			},
			startedGate:   make(chan struct{}),
			healthyGate:   make(chan struct{}),
			completedGate: make(chan struct{}),
			failedGate:    make(chan struct{}),
		}
	}
	return s, nil
}

func eventSink(store state.Store) state.EventStore {
	if store == nil {
		return nil
	}
	return store
}

// RunID returns the identifier of this startup cycle.
func (s *Supervisor) RunID() string {
	return s.runID
}

// Up runs the startup cycle: every service is started once its dependency
// edges are satisfied, and Up returns once each service has reached its goal
// state (started, healthy for probed services, completed for oneshots). On
// any failure the transitive dependents are blocked, everything already
// started is stopped in reverse order, and the root cause is returned
// wrapped in ErrStartupFailed.
func (s *Supervisor) Up(ctx context.Context) error {
	if s.store != nil {
		err := s.store.CreateRun(&state.Run{
			ID:        s.runID,
			StackPath: s.stack.Path(),
			StartedAt: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}
	s.emitter.Emit(events.RunStartedEvent{
		RunID:     s.runID,
		StackPath: s.stack.Path(),
		Services:  len(s.services),
	})

	if s.volumes != nil {
		created, err := s.volumes.EnsureAll(s.stack)
		if err != nil {
			err = fmt.Errorf("materialize volumes: %w", err)
			if s.finishRun(state.OutcomeFailed, err) {
				s.emitter.Emit(events.RunFinishedEvent{RunID: s.runID, Outcome: state.OutcomeFailed, Err: err})
			}
			return fmt.Errorf("%w: %w", ErrStartupFailed, err)
		}
		for _, name := range created {
			s.emitter.Emit(events.VolumeCreatedEvent{
				RunID:      s.runID,
				VolumeName: name,
				Path:       filepath.Join(s.volumes.Root, name),
			})
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, sr := range s.services {
		s.setStatus(sr, state.StatusPending, nil)
	}

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(s.services))

	for _, name := range s.graph.Nodes() {
		sr := s.services[name]
		go func() {
			results <- result{name: sr.name, err: s.runService(ctx, sr)}
		}()
	}

	var rootCause error
	for range s.services {
		res := <-results
		if res.err == nil || errors.Is(res.err, errDependencyFailed) {
			continue
		}
		if rootCause == nil {
			rootCause = fmt.Errorf("service %s: %w", res.name, res.err)
			// Failing fast: cancel waiters so blocked services resolve.
			cancel()
		}
	}

	if rootCause != nil {
		s.stopStarted()
		if s.finishRun(state.OutcomeFailed, rootCause) {
			s.emitter.Emit(events.RunFinishedEvent{RunID: s.runID, Outcome: state.OutcomeFailed, Err: rootCause})
		}
		return fmt.Errorf("%w: %w", ErrStartupFailed, rootCause)
	}

	s.logger.Info("all services reached their goal state")

	// A stack of nothing but oneshots is over once they have all completed;
	// there is no process left for Down to stop.
	s.mu.Lock()
	allCompleted := true
	for _, sr := range s.services {
		if sr.status.Status != state.StatusCompleted {
			allCompleted = false
			break
		}
	}
	s.mu.Unlock()
	if allCompleted {
		if s.finishRun(state.OutcomeSucceeded, nil) {
			s.emitter.Emit(events.RunFinishedEvent{RunID: s.runID, Outcome: state.OutcomeSucceeded})
		}
	}
	return nil
}

// runService drives one service through its lifecycle and returns when it
// reaches its goal state or fails.
func (s *Supervisor) runService(ctx context.Context, sr *serviceRun) error {
	if err := s.awaitDependencies(ctx, sr); err != nil {
		return err
	}

	s.setStatus(sr, state.StatusStarting, nil)

	spec, err := s.launchSpec(sr)
	if err != nil {
		s.fail(sr, err)
		return err
	}
	handle, err := s.launcher.Launch(spec)
	if err != nil {
		s.fail(sr, err)
		return err
	}

	s.mu.Lock()
	sr.handle = handle
	sr.status.PID = handle.PID()
	s.started = append(s.started, sr.name)
	s.mu.Unlock()

	s.setStatus(sr, state.StatusStarted, nil)
	sr.startedOnce.Do(func() { close(sr.startedGate) })

	go s.watchExit(sr, handle)

	switch {
	case sr.service.OneShot:
		return s.awaitCompletion(ctx, sr)
	case sr.service.Healthcheck != nil && !sr.service.Healthcheck.Test.Disabled():
		return s.awaitHealthy(ctx, sr)
	default:
		return nil
	}
}

// awaitDependencies blocks until every dependency edge of sr is satisfied.
func (s *Supervisor) awaitDependencies(ctx context.Context, sr *serviceRun) error {
	edges := s.graph.Dependencies(sr.name)
	if len(edges) == 0 {
		return nil
	}
	s.setStatus(sr, state.StatusWaiting, nil)

	for _, edge := range edges {
		dep := s.services[edge.Dependency]
		select {
		case <-dep.gateFor(edge.Condition):
		case <-dep.failedGate:
			reason := fmt.Sprintf("dependency %s failed before reaching %s", edge.Dependency, edge.Condition)
			s.block(sr, reason)
			return fmt.Errorf("%w: %s", errDependencyFailed, reason)
		case <-ctx.Done():
			s.block(sr, "startup canceled")
			return fmt.Errorf("%w: startup canceled", errDependencyFailed)
		}
	}
	return nil
}

// awaitHealthy runs the readiness probe until it passes or permanently
// fails. A process death during probing aborts immediately.
func (s *Supervisor) awaitHealthy(ctx context.Context, sr *serviceRun) error {
	runner, err := s.newProbeRunner(sr.name, sr.service.Healthcheck, s.probeObserver())
	if err != nil {
		s.fail(sr, err)
		return err
	}

	probeDone := make(chan error, 1)
	probeCtx, cancelProbe := context.WithCancel(ctx)
	defer cancelProbe()
	go func() { probeDone <- runner.Run(probeCtx) }()

	select {
	case err := <-probeDone:
		if err != nil {
			s.fail(sr, err)
			return err
		}
		s.setStatus(sr, state.StatusHealthy, nil)
		sr.healthyOnce.Do(func() { close(sr.healthyGate) })
		return nil
	case <-sr.failedGate:
		// Process died while being probed; watchExit recorded the failure.
		return fmt.Errorf("process exited before becoming healthy")
	}
}

// awaitCompletion waits for a oneshot to exit.
func (s *Supervisor) awaitCompletion(ctx context.Context, sr *serviceRun) error {
	select {
	case <-sr.completedGate:
		return nil
	case <-sr.failedGate:
		exit := sr.handle.Exit()
		return fmt.Errorf("oneshot exited with code %d", exit.Code)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// watchExit records the terminal state of a launched process.
func (s *Supervisor) watchExit(sr *serviceRun, handle process.Handle) {
	<-handle.Done()
	exit := handle.Exit()
	code := exit.Code

	switch {
	case sr.service.OneShot && exit.Success():
		s.setStatusExit(sr, state.StatusCompleted, &code)
		sr.completedOnce.Do(func() { close(sr.completedGate) })
	case sr.service.OneShot:
		s.setStatusExit(sr, state.StatusFailed, &code)
		sr.failedOnce.Do(func() { close(sr.failedGate) })
	default:
		s.mu.Lock()
		alreadyTerminal := sr.status.Status.Terminal()
		if alreadyTerminal {
			// Teardown after a recorded failure; keep the terminal status
			// and just note the exit code.
			sr.status.ExitCode = &code
		}
		s.mu.Unlock()
		if !alreadyTerminal {
			// A daemon that exits on its own can no longer satisfy started
			// or healthy dependents; treat the death as a failure for
			// gating while recording the exit.
			s.setStatusExit(sr, state.StatusExited, &code)
		}
		sr.failedOnce.Do(func() { close(sr.failedGate) })
	}
}

// launchSpec assembles the process spec for a service: declared environment
// plus resolved GANTRY_VOLUME_* paths, working directory anchored at the
// stack file.
func (s *Supervisor) launchSpec(sr *serviceRun) (process.Spec, error) {
	svc := sr.service
	env := svc.Environment.Sorted()
	if s.volumes != nil {
		volumeEnv, err := s.volumes.Env(svc)
		if err != nil {
			return process.Spec{}, err
		}
		env = append(env, volumeEnv...)
	}
	dir := svc.WorkDir
	if dir == "" {
		dir = s.stack.Dir()
	}
	return process.Spec{
		Name:            sr.name,
		Argv:            svc.Command.Resolved(),
		Dir:             dir,
		Env:             env,
		LogDir:          s.logDir,
		StopGracePeriod: svc.StopGracePeriod.Std(),
	}, nil
}

func (s *Supervisor) fail(sr *serviceRun, err error) {
	s.mu.Lock()
	sr.status.Error = err.Error()
	s.mu.Unlock()
	s.setStatus(sr, state.StatusFailed, nil)
	sr.failedOnce.Do(func() { close(sr.failedGate) })
}

func (s *Supervisor) block(sr *serviceRun, reason string) {
	s.mu.Lock()
	sr.status.Error = reason
	s.mu.Unlock()
	s.setStatus(sr, state.StatusBlocked, &reason)
	sr.failedOnce.Do(func() { close(sr.failedGate) })
}

func (s *Supervisor) setStatusExit(sr *serviceRun, status state.Status, code *int) {
	s.mu.Lock()
	sr.status.ExitCode = code
	s.mu.Unlock()
	s.setStatus(sr, status, nil)
}

// setStatus is the single funnel for lifecycle transitions: in-memory view,
// state store, metrics, and the lifecycle event all update here.
func (s *Supervisor) setStatus(sr *serviceRun, status state.Status, reason *string) {
	s.mu.Lock()
	sr.status.Status = status
	sr.status.UpdatedAt = time.Now()
	snapshot := sr.status
	running := 0
	for _, other := range s.services {
		if other.status.Status.Running() {
			running++
		}
	}
	s.mu.Unlock()

	metrics.RecordServiceState(sr.name, status.String())
	metrics.SetServicesRunning(running)

	if s.store != nil {
		if err := s.store.UpsertServiceState(&snapshot); err != nil {
			s.logger.WithError(err).WithField("service", sr.name).Warn("failed to persist service state")
		}
	}

	event := events.ServiceStateEvent{
		RunID:       s.runID,
		ServiceName: sr.name,
		Status:      status,
		PID:         snapshot.PID,
		ExitCode:    snapshot.ExitCode,
	}
	if reason != nil {
		event.Reason = *reason
	}
	s.emitter.Emit(event)
}

// probeObserver bridges probe attempts into the store, metrics, and events.
func (s *Supervisor) probeObserver() probe.Observer {
	return &probeRecorder{s: s}
}

type probeRecorder struct {
	s *Supervisor
}

func (r *probeRecorder) ProbeAttempt(service string, attempt int, err error, elapsed time.Duration) {
	s := r.s
	metrics.RecordProbeAttempt(service, err == nil, elapsed)

	retries := 0
	if svc := s.stack.Services[service]; svc != nil && svc.Healthcheck != nil {
		retries = svc.Healthcheck.Retries
	}
	s.emitter.Emit(events.ProbeAttemptEvent{
		RunID:       s.runID,
		ServiceName: service,
		Attempt:     attempt,
		Retries:     retries,
		Err:         err,
		Elapsed:     elapsed,
	})

	if s.store != nil {
		rec := &state.ProbeAttempt{
			RunID:   s.runID,
			Service: service,
			Attempt: attempt,
			Success: err == nil,
			Elapsed: elapsed,
			At:      time.Now(),
		}
		if err != nil {
			rec.Error = err.Error()
		}
		if storeErr := s.store.RecordProbeAttempt(rec); storeErr != nil {
			s.logger.WithError(storeErr).Warn("failed to persist probe attempt")
		}
	}
}

// Statuses returns a snapshot of every service's state, ordered by name.
func (s *Supervisor) Statuses() []state.ServiceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]state.ServiceState, 0, len(s.services))
	for _, name := range s.graph.Nodes() {
		out = append(out, s.services[name].status)
	}
	return out
}

// Status returns the snapshot of one service.
func (s *Supervisor) Status(name string) (state.ServiceState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sr, ok := s.services[name]
	if !ok {
		return state.ServiceState{}, false
	}
	return sr.status, true
}

// StopService stops one running service.
func (s *Supervisor) StopService(name string) error {
	s.mu.Lock()
	sr, ok := s.services[name]
	var handle process.Handle
	running := false
	if ok {
		handle = sr.handle
		running = sr.status.Status.Running()
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("unknown service %s", name)
	}
	if handle == nil || !running {
		return fmt.Errorf("service %s is not running", name)
	}
	return handle.Stop()
}

// Down stops every running service in reverse start order and closes the
// run. Safe to call more than once.
func (s *Supervisor) Down() {
	s.downOnce.Do(func() {
		s.stopStarted()
		if s.finishRun(state.OutcomeStopped, nil) {
			s.emitter.Emit(events.RunFinishedEvent{RunID: s.runID, Outcome: state.OutcomeStopped})
		}
		close(s.done)
	})
}

// Done is closed once Down has finished tearing the run down, letting a
// foreground caller exit when the stack is stopped through the control API.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// stopStarted stops already launched services in reverse launch order.
func (s *Supervisor) stopStarted() {
	s.mu.Lock()
	order := append([]string(nil), s.started...)
	s.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		sr := s.services[order[i]]
		s.mu.Lock()
		handle := sr.handle
		s.mu.Unlock()
		if handle == nil {
			continue
		}
		select {
		case <-handle.Done():
			continue
		default:
		}
		s.logger.WithField("service", sr.name).Info("stopping service")
		_ = handle.Stop()
	}
}

// finishRun closes the run record once; later outcomes do not overwrite the
// first. It reports whether this call was the one that closed the run.
func (s *Supervisor) finishRun(outcome string, cause error) bool {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return false
	}
	s.finished = true
	s.mu.Unlock()

	if s.store == nil {
		return true
	}
	errText := ""
	if cause != nil {
		errText = cause.Error()
	}
	if err := s.store.FinishRun(s.runID, outcome, errText, time.Now()); err != nil {
		s.logger.WithError(err).Warn("failed to close run record")
	}
	return true
}
