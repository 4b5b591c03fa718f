package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// DiscoveryFileName lives under the state directory while a supervisor is
// serving the control API.
const DiscoveryFileName = "supervisor.json"

// Discovery records where the running supervisor can be reached.
type Discovery struct {
	PID       int       `json:"pid"`
	Address   string    `json:"address"`
	RunID     string    `json:"run_id"`
	StackPath string    `json:"stack_path"`
	StartedAt time.Time `json:"started_at"`
}

// BaseURL returns the http URL of the control API.
func (d Discovery) BaseURL() string {
	return "http://" + d.Address
}

// Alive reports whether the recorded supervisor process still exists, so a
// discovery file left behind by a crash is not mistaken for a live run.
func (d Discovery) Alive() bool {
	if d.PID <= 0 {
		return false
	}
	proc, err := os.FindProcess(d.PID)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// WriteDiscovery publishes the discovery file for a serving supervisor.
func WriteDiscovery(stateDir string, d Discovery) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(stateDir, DiscoveryFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write discovery file: %w", err)
	}
	return nil
}

// ReadDiscovery loads the discovery file. os.ErrNotExist means no supervisor
// is serving.
func ReadDiscovery(stateDir string) (*Discovery, error) {
	data, err := os.ReadFile(filepath.Join(stateDir, DiscoveryFileName))
	if err != nil {
		return nil, err
	}
	var d Discovery
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse discovery file: %w", err)
	}
	return &d, nil
}

// RemoveDiscovery retracts the discovery file on shutdown.
func RemoveDiscovery(stateDir string) error {
	err := os.Remove(filepath.Join(stateDir, DiscoveryFileName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
