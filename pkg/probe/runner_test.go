package probe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProber fails until the scripted attempt number is reached.
type scriptedProber struct {
	mu        sync.Mutex
	calls     int
	passAfter int // pass on call >= passAfter; 0 never passes
}

func (p *scriptedProber) Check(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.passAfter > 0 && p.calls >= p.passAfter {
		return nil
	}
	return errors.New("connection refused")
}

func (p *scriptedProber) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type recordingObserver struct {
	mu       sync.Mutex
	attempts []int
	errs     []error
}

func (o *recordingObserver) ProbeAttempt(service string, attempt int, err error, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, attempt)
	o.errs = append(o.errs, err)
}

func TestRunnerPassesOnScriptedAttempt(t *testing.T) {
	prober := &scriptedProber{passAfter: 3}
	obs := &recordingObserver{}
	r := &Runner{
		Service:  "database",
		Prober:   prober,
		Interval: 5 * time.Millisecond,
		Timeout:  time.Second,
		Retries:  5,
		Observer: obs,
	}

	err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, prober.callCount())
	assert.Equal(t, []int{1, 2, 3}, obs.attempts)
	assert.Error(t, obs.errs[0])
	assert.NoError(t, obs.errs[2])
}

func TestRunnerExhaustsRetryBudget(t *testing.T) {
	prober := &scriptedProber{}
	r := &Runner{
		Service:  "database",
		Prober:   prober,
		Interval: 5 * time.Millisecond,
		Timeout:  time.Second,
		Retries:  5,
	}

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnready))

	var unready *UnreadyError
	require.True(t, errors.As(err, &unready))
	assert.Equal(t, "database", unready.Service)
	assert.Equal(t, 5, unready.Attempts)
	assert.Equal(t, 5, prober.callCount())
}

func TestRunnerBoundedMaxWait(t *testing.T) {
	// With timeout below interval the budget is spent in about
	// retries * interval.
	prober := &scriptedProber{}
	r := &Runner{
		Service:  "database",
		Prober:   prober,
		Interval: 10 * time.Millisecond,
		Timeout:  5 * time.Millisecond,
		Retries:  5,
	}

	start := time.Now()
	err := r.Run(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestRunnerStartPeriodDoesNotConsumeBudget(t *testing.T) {
	prober := &scriptedProber{passAfter: 6}
	obs := &recordingObserver{}
	r := &Runner{
		Service:     "database",
		Prober:      prober,
		Interval:    5 * time.Millisecond,
		Timeout:     time.Second,
		Retries:     2,
		StartPeriod: 22 * time.Millisecond,
		Observer:    obs,
	}

	// Without the start period two failures would exhaust the budget before
	// call six ever happens.
	err := r.Run(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, prober.callCount(), 6)
}

func TestRunnerCanceled(t *testing.T) {
	prober := &scriptedProber{}
	r := &Runner{
		Service:  "database",
		Prober:   prober,
		Interval: 5 * time.Millisecond,
		Timeout:  time.Second,
		Retries:  1000,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
