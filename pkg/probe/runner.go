package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gantry-sh/gantry/pkg/stack"
)

// ErrUnready marks a probe that exhausted its retry budget. The failure is
// fatal for the startup cycle; retries are exhausted, not infinite.
var ErrUnready = errors.New("readiness probe exhausted its retries")

// UnreadyError reports the permanent unreadiness of a service.
type UnreadyError struct {
	Service  string
	Attempts int
	Elapsed  time.Duration
	LastErr  error
}

func (e *UnreadyError) Error() string {
	return fmt.Sprintf("service %s is not ready after %d attempts over %s: %v",
		e.Service, e.Attempts, e.Elapsed.Round(time.Millisecond), e.LastErr)
}

func (e *UnreadyError) Unwrap() error {
	return ErrUnready
}

// Observer receives the outcome of each probe attempt. Attempt numbers start
// at 1 and only count attempts outside the start period.
type Observer interface {
	ProbeAttempt(service string, attempt int, err error, elapsed time.Duration)
}

// Runner drives a Prober on a fixed schedule until it passes or the retry
// budget is spent.
//
// Attempts are serialized on interval boundaries: the first attempt fires
// one interval after Run is called, and each following attempt at the later
// of the next boundary and the previous attempt's completion. With timeout
// not exceeding interval the maximum wait is therefore retries * interval;
// a slower probe stretches it toward retries * timeout.
type Runner struct {
	Service     string
	Prober      Prober
	Interval    time.Duration
	Timeout     time.Duration
	Retries     int
	StartPeriod time.Duration
	Observer    Observer
}

// NewRunner builds a Runner for a service's healthcheck declaration.
func NewRunner(service string, hc *stack.Healthcheck, obs Observer) (*Runner, error) {
	prober, err := New(hc.Test)
	if err != nil {
		return nil, err
	}
	return &Runner{
		Service:     service,
		Prober:      prober,
		Interval:    hc.Interval.Std(),
		Timeout:     hc.Timeout.Std(),
		Retries:     hc.Retries,
		StartPeriod: hc.StartPeriod.Std(),
		Observer:    obs,
	}, nil
}

// Run blocks until the probe passes, the retry budget is exhausted, or ctx
// is canceled. Exhaustion returns an *UnreadyError wrapping ErrUnready.
func (r *Runner) Run(ctx context.Context) error {
	started := time.Now()
	graceEnd := started.Add(r.StartPeriod)
	attempts := 0
	var lastErr error

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		attemptStart := time.Now()
		err := r.check(ctx)
		elapsed := time.Since(attemptStart)

		if err == nil {
			if r.Observer != nil {
				r.Observer.ProbeAttempt(r.Service, attempts+1, nil, elapsed)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err

		// Failures inside the start period don't consume the budget.
		if attemptStart.Before(graceEnd) {
			continue
		}

		attempts++
		if r.Observer != nil {
			r.Observer.ProbeAttempt(r.Service, attempts, err, elapsed)
		}
		if attempts >= r.Retries {
			return &UnreadyError{
				Service:  r.Service,
				Attempts: attempts,
				Elapsed:  time.Since(started),
				LastErr:  lastErr,
			}
		}
	}
}

func (r *Runner) check(ctx context.Context) error {
	attemptCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	return r.Prober.Check(attemptCtx)
}
