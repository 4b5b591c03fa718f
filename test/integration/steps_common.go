package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/gantry-sh/gantry/pkg/state"
	"github.com/gantry-sh/gantry/pkg/supervisor"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc        *TestContext
	dir       string
	stackYAML string
	apiKey    string
	handle    *stackHandle
	upResult  error
	upDone    bool

	response     int
	responseBody []byte
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "gantry-scenario-")
		if err != nil {
			return ctx, err
		}
		s.dir = dir
		return ctx, nil
	})
	sc.After(func(ctx context.Context, scenario *godog.Scenario, scErr error) (context.Context, error) {
		if s.handle != nil {
			s.handle.stop()
			s.handle = nil
		}
		if s.dir != "" {
			_ = os.RemoveAll(s.dir)
		}
		return ctx, nil
	})

	// Stack lifecycle steps
	sc.Step(`^a stack file:$`, s.aStackFile)
	sc.Step(`^the control API key is "([^"]*)"$`, s.theControlAPIKeyIs)
	sc.Step(`^the stack is brought up$`, s.theStackIsBroughtUp)
	sc.Step(`^the stack is brought up with the control API$`, s.theStackIsBroughtUpWithAPI)
	sc.Step(`^startup should succeed$`, s.startupShouldSucceed)
	sc.Step(`^startup should fail$`, s.startupShouldFail)
	sc.Step(`^the stack is stopped$`, s.theStackIsStopped)

	// Service state steps
	sc.Step(`^service "([^"]*)" should have status "([^"]*)"$`, s.serviceShouldHaveStatus)
	sc.Step(`^service "([^"]*)" should reach status "([^"]*)" within (\d+) seconds$`, s.serviceShouldReachStatus)
	sc.Step(`^service "([^"]*)" should become healthy before "([^"]*)" starts$`, s.serviceShouldBecomeHealthyBefore)
	sc.Step(`^the marker file "([^"]*)" should exist$`, s.theMarkerFileShouldExist)
	sc.Step(`^at least (\d+) probe attempts should be recorded for "([^"]*)"$`, s.probeAttemptsShouldBeRecorded)

	registerAPISteps(s, sc)
}

// Stack lifecycle steps

func (s *StepsContext) aStackFile(body *godog.DocString) error {
	// %DIR% lets scenarios reference the scenario directory for marker
	// files without leaning on environment interpolation.
	s.stackYAML = strings.ReplaceAll(body.Content, "%DIR%", s.dir)
	return nil
}

func (s *StepsContext) theControlAPIKeyIs(key string) error {
	s.apiKey = key
	return nil
}

func (s *StepsContext) bringUp(withAPI bool) error {
	if s.stackYAML == "" {
		return fmt.Errorf("no stack file given")
	}
	handle, err := s.tc.startStack(s.dir, s.stackYAML, s.apiKey, withAPI)
	if err != nil {
		return err
	}
	s.handle = handle
	s.upDone = false
	return nil
}

func (s *StepsContext) theStackIsBroughtUp() error {
	return s.bringUp(false)
}

func (s *StepsContext) theStackIsBroughtUpWithAPI() error {
	return s.bringUp(true)
}

// awaitUp blocks until the startup cycle resolves, remembering the outcome
// so later steps can re-examine it.
func (s *StepsContext) awaitUp() error {
	if s.handle == nil {
		return fmt.Errorf("stack was not brought up")
	}
	if s.upDone {
		return nil
	}
	select {
	case err := <-s.handle.upErr:
		s.upResult = err
		s.upDone = true
		return nil
	case <-time.After(60 * time.Second):
		return fmt.Errorf("startup cycle did not resolve within 60s")
	}
}

func (s *StepsContext) startupShouldSucceed() error {
	if err := s.awaitUp(); err != nil {
		return err
	}
	if s.upResult != nil {
		return fmt.Errorf("expected startup to succeed, got: %v", s.upResult)
	}
	return nil
}

func (s *StepsContext) startupShouldFail() error {
	if err := s.awaitUp(); err != nil {
		return err
	}
	if s.upResult == nil {
		return fmt.Errorf("expected startup to fail but it succeeded")
	}
	if !errors.Is(s.upResult, supervisor.ErrStartupFailed) {
		return fmt.Errorf("expected a startup failure, got: %v", s.upResult)
	}
	return nil
}

func (s *StepsContext) theStackIsStopped() error {
	if s.handle == nil {
		return fmt.Errorf("stack was not brought up")
	}
	s.handle.sup.Down()
	return nil
}

// Service state steps

func (s *StepsContext) serviceShouldHaveStatus(name, want string) error {
	st, ok := s.handle.sup.Status(name)
	if !ok {
		return fmt.Errorf("unknown service %q", name)
	}
	if st.Status.String() != want {
		return fmt.Errorf("service %s: expected status %q, got %q (%s)", name, want, st.Status, st.Error)
	}
	return nil
}

func (s *StepsContext) serviceShouldReachStatus(name, want string, seconds int) error {
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	for {
		st, ok := s.handle.sup.Status(name)
		if !ok {
			return fmt.Errorf("unknown service %q", name)
		}
		if st.Status.String() == want {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("service %s: expected status %q within %ds, still %q", name, want, seconds, st.Status)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (s *StepsContext) serviceShouldBecomeHealthyBefore(dep, dependent string) error {
	events, err := s.tc.Store.ListEvents(s.handle.sup.RunID())
	if err != nil {
		return err
	}
	healthyAt := eventIndex(events, dep, state.StatusHealthy)
	startedAt := eventIndex(events, dependent, state.StatusStarted)
	if healthyAt < 0 {
		return fmt.Errorf("no healthy transition recorded for %s", dep)
	}
	if startedAt < 0 {
		return fmt.Errorf("no started transition recorded for %s", dependent)
	}
	if healthyAt >= startedAt {
		return fmt.Errorf("%s started (event %d) before %s was healthy (event %d)", dependent, startedAt, dep, healthyAt)
	}
	return nil
}

// eventIndex finds the first lifecycle event marking service at status.
func eventIndex(events []state.Event, service string, status state.Status) int {
	want := fmt.Sprintf("service %s is %s", service, status)
	for i, e := range events {
		if e.Kind == "service_state" && e.Service == service && strings.HasPrefix(e.Message, want) {
			return i
		}
	}
	return -1
}

func (s *StepsContext) theMarkerFileShouldExist(name string) error {
	path := strings.ReplaceAll(name, "%DIR%", s.dir)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("marker file %s: %w", path, err)
	}
	return nil
}

func (s *StepsContext) probeAttemptsShouldBeRecorded(min int, service string) error {
	attempts, err := s.tc.Store.ListProbeAttempts(s.handle.sup.RunID(), service)
	if err != nil {
		return err
	}
	if len(attempts) < min {
		return fmt.Errorf("expected at least %d probe attempts for %s, got %d", min, service, len(attempts))
	}
	return nil
}
