package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// DefaultStopGracePeriod is how long a stopped process gets to exit after
// SIGTERM before it is killed.
const DefaultStopGracePeriod = 10 * time.Second

// Spec describes one process to launch.
type Spec struct {
	Name            string
	Argv            []string
	Dir             string
	Env             []string // full environment, KEY=VALUE
	LogDir          string   // receives <name>.stdout.log and <name>.stderr.log
	StopGracePeriod time.Duration
}

// ExitStatus is the terminal state of a launched process.
type ExitStatus struct {
	Code int
	Err  error // non-exit errors (wait failures); nil for a plain exit
}

// Success reports a zero exit.
func (s ExitStatus) Success() bool {
	return s.Err == nil && s.Code == 0
}

// Handle follows a launched process.
type Handle interface {
	// PID of the launched process.
	PID() int
	// Done is closed when the process exits.
	Done() <-chan struct{}
	// Exit returns the exit status; valid only after Done is closed.
	Exit() ExitStatus
	// Stop terminates the process: SIGTERM to the process group, SIGKILL
	// after the grace period. It returns once the process has exited.
	Stop() error
}

// Launcher starts processes. The exec implementation is the production one;
// tests substitute fakes.
type Launcher interface {
	Launch(spec Spec) (Handle, error)
}

// ExecLauncher launches real host processes.
type ExecLauncher struct{}

// NewExecLauncher returns the production launcher.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{}
}

// Launch starts the process described by spec. Stdout and stderr stream to
// per-service files under spec.LogDir. The child gets its own process group
// so Stop can signal the whole tree.
func (l *ExecLauncher) Launch(spec Spec) (Handle, error) {
	if len(spec.Argv) == 0 {
		return nil, fmt.Errorf("service %s: no argv", spec.Name)
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var files []*os.File
	if spec.LogDir != "" {
		if err := os.MkdirAll(spec.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		stdout, err := openLog(spec.LogDir, spec.Name, "stdout")
		if err != nil {
			return nil, err
		}
		stderr, err := openLog(spec.LogDir, spec.Name, "stderr")
		if err != nil {
			_ = stdout.Close()
			return nil, err
		}
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		files = []*os.File{stdout, stderr}
	}

	if err := cmd.Start(); err != nil {
		for _, f := range files {
			_ = f.Close()
		}
		return nil, fmt.Errorf("start service %s: %w", spec.Name, err)
	}

	grace := spec.StopGracePeriod
	if grace <= 0 {
		grace = DefaultStopGracePeriod
	}

	h := &execHandle{
		pid:   cmd.Process.Pid,
		grace: grace,
		done:  make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		for _, f := range files {
			_ = f.Close()
		}
		h.exit = exitStatus(err)
		close(h.done)
	}()

	return h, nil
}

func openLog(dir, name, stream string) (*os.File, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s.%s.log", name, stream))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

func exitStatus(err error) ExitStatus {
	if err == nil {
		return ExitStatus{}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ExitStatus{Code: exitErr.ExitCode()}
	}
	return ExitStatus{Code: -1, Err: err}
}

type execHandle struct {
	pid   int
	grace time.Duration
	done  chan struct{}
	exit  ExitStatus

	stopOnce sync.Once
}

func (h *execHandle) PID() int {
	return h.pid
}

func (h *execHandle) Done() <-chan struct{} {
	return h.done
}

func (h *execHandle) Exit() ExitStatus {
	return h.exit
}

func (h *execHandle) Stop() error {
	h.stopOnce.Do(func() {
		// Negative pid signals the process group.
		_ = syscall.Kill(-h.pid, syscall.SIGTERM)
		select {
		case <-h.done:
		case <-time.After(h.grace):
			_ = syscall.Kill(-h.pid, syscall.SIGKILL)
		}
	})
	<-h.done
	return nil
}
