package integration

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gantry-sh/gantry/pkg/server"
	"github.com/gantry-sh/gantry/pkg/server/endpoints"
	"github.com/gantry-sh/gantry/pkg/stack"
	"github.com/gantry-sh/gantry/pkg/stack/graph"
	stategorm "github.com/gantry-sh/gantry/pkg/state/gorm"
	"github.com/gantry-sh/gantry/pkg/supervisor"
	"github.com/gantry-sh/gantry/pkg/volume"
)

// portCounter allocates a unique control API port per scenario.
var portCounter int32 = 17900

// TestContext holds the resources shared by every scenario.
type TestContext struct {
	StateDir   string
	Store      *stategorm.Store
	HTTPClient *http.Client
}

// NewTestContext prepares a throwaway state directory with a migrated
// sqlite state database. Scenarios run supervisors in-process against it.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	stateDir, err := os.MkdirTemp("", "gantry-integration-")
	if err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	dbURL := stategorm.DefaultURL(stateDir)
	if err := stategorm.Migrate(dbURL); err != nil {
		_ = os.RemoveAll(stateDir)
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}

	db, err := stategorm.Open(dbURL)
	if err != nil {
		_ = os.RemoveAll(stateDir)
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	return &TestContext{
		StateDir:   stateDir,
		Store:      stategorm.NewStore(db),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.StateDir != "" {
		_ = os.RemoveAll(tc.StateDir)
	}
}

// stackHandle is one in-process supervisor run driven by a scenario.
type stackHandle struct {
	sup    *supervisor.Supervisor
	srv    *server.Server
	upErr  chan error
	cancel context.CancelFunc
}

// startStack writes stackYAML into dir, builds a supervisor over the shared
// state store, and kicks off the startup cycle. With apiKey non-empty a
// control API server is started on a fresh port.
func (tc *TestContext) startStack(dir, stackYAML, apiKey string, withAPI bool) (*stackHandle, error) {
	stackPath := filepath.Join(dir, stack.DefaultFileName)
	if err := os.WriteFile(stackPath, []byte(stackYAML), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write stack file: %w", err)
	}

	st, err := stack.Load(stackPath)
	if err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	g, err := graph.New(st)
	if err != nil {
		return nil, err
	}

	volumes := volume.NewManager(tc.StateDir, st.Dir())

	sup, err := supervisor.New(supervisor.Options{
		Stack:   st,
		Graph:   g,
		Volumes: volumes,
		Store:   tc.Store,
		LogDir:  filepath.Join(dir, "logs"),
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &stackHandle{sup: sup, upErr: make(chan error, 1), cancel: cancel}

	if withAPI {
		port := atomic.AddInt32(&portCounter, 1)
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		h.srv = server.NewServer(sup, tc.Store, addr, apiKey)
		endpoints.RegisterAll(h.srv)
		go func() {
			if err := h.srv.Start(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "control API server: %v\n", err)
			}
		}()
		if err := waitForServer("http://"+addr, 10*time.Second); err != nil {
			cancel()
			return nil, err
		}
	}

	go func() {
		h.upErr <- sup.Up(ctx)
	}()

	return h, nil
}

// baseURL returns the control API address, empty when no API was started.
func (h *stackHandle) baseURL() string {
	if h.srv == nil {
		return ""
	}
	return "http://" + h.srv.Addr()
}

// stop tears the run down and releases the API listener.
func (h *stackHandle) stop() {
	h.sup.Down()
	h.cancel()
	if h.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.srv.Shutdown(ctx)
	}
}

// waitForServer polls the server until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}
