package process

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecLauncherExitZero(t *testing.T) {
	l := NewExecLauncher()

	h, err := l.Launch(Spec{
		Name: "oneshot",
		Argv: []string{"/bin/sh", "-c", "exit 0"},
	})
	require.NoError(t, err)
	assert.Greater(t, h.PID(), 0)

	<-h.Done()
	assert.True(t, h.Exit().Success())
	assert.Equal(t, 0, h.Exit().Code)
}

func TestExecLauncherExitNonzero(t *testing.T) {
	l := NewExecLauncher()

	h, err := l.Launch(Spec{
		Name: "failing",
		Argv: []string{"/bin/sh", "-c", "exit 3"},
	})
	require.NoError(t, err)

	<-h.Done()
	assert.False(t, h.Exit().Success())
	assert.Equal(t, 3, h.Exit().Code)
}

func TestExecLauncherEnvironmentAndLogs(t *testing.T) {
	logDir := t.TempDir()
	l := NewExecLauncher()

	h, err := l.Launch(Spec{
		Name:   "env-echo",
		Argv:   []string{"/bin/sh", "-c", "echo out $GREETING; echo err >&2"},
		Env:    []string{"PATH=/bin:/usr/bin", "GREETING=hello"},
		LogDir: logDir,
	})
	require.NoError(t, err)
	<-h.Done()
	require.True(t, h.Exit().Success())

	stdout, err := os.ReadFile(filepath.Join(logDir, "env-echo.stdout.log"))
	require.NoError(t, err)
	assert.Equal(t, "out hello\n", string(stdout))

	stderr, err := os.ReadFile(filepath.Join(logDir, "env-echo.stderr.log"))
	require.NoError(t, err)
	assert.Equal(t, "err\n", string(stderr))
}

func TestExecLauncherStop(t *testing.T) {
	l := NewExecLauncher()

	h, err := l.Launch(Spec{
		Name:            "sleeper",
		Argv:            []string{"/bin/sh", "-c", "sleep 60"},
		StopGracePeriod: 2 * time.Second,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- h.Stop() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	<-h.Done()
	assert.False(t, h.Exit().Success())
}

func TestExecLauncherLaunchErrors(t *testing.T) {
	l := NewExecLauncher()

	_, err := l.Launch(Spec{Name: "empty"})
	assert.Error(t, err)

	_, err = l.Launch(Spec{
		Name: "missing",
		Argv: []string{"/nonexistent/binary"},
	})
	assert.Error(t, err)
}
