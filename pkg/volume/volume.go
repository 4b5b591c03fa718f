// Package volume manages durable storage for services. Named volumes
// materialize as directories under the state directory, created on first use
// and never implicitly deleted. Host binds resolve relative to the stack
// file. Because services run as host processes without a mount namespace,
// resolved paths reach them through GANTRY_VOLUME_* environment variables.
package volume

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gantry-sh/gantry/pkg/server"
	"github.com/gantry-sh/gantry/pkg/stack"
)

// Manager resolves and materializes the volumes of a stack.
type Manager struct {
	// Root is the directory holding named volumes, <state-dir>/volumes.
	Root string
	// StackDir anchors relative host binds.
	StackDir string

	stateDir string
}

// NewManager returns a Manager rooted at stateDir/volumes.
func NewManager(stateDir, stackDir string) *Manager {
	return &Manager{
		Root:     filepath.Join(stateDir, "volumes"),
		StackDir: stackDir,
		stateDir: stateDir,
	}
}

// Info describes one materialized named volume.
type Info struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Writer string `json:"writer,omitempty"`
	Size   int64  `json:"size_bytes"`
}

// Resolve returns the host path behind a mount spec. Named volumes land
// under the manager root; binds resolve against the stack directory.
func (m *Manager) Resolve(spec stack.MountSpec) (string, error) {
	if !spec.IsBind() {
		return filepath.Join(m.Root, spec.Source), nil
	}
	src := spec.Source
	if strings.HasPrefix(src, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", src, err)
		}
		src = filepath.Join(home, strings.TrimPrefix(src, "~"))
	}
	if !filepath.IsAbs(src) {
		src = filepath.Join(m.StackDir, src)
	}
	return filepath.Clean(src), nil
}

// EnsureAll materializes every volume the stack references: declared named
// volumes and host bind sources alike, created when absent. Existing
// directories are left untouched. The returned names are the named volumes
// this call created.
func (m *Manager) EnsureAll(st *stack.Stack) ([]string, error) {
	var created []string
	for _, name := range st.VolumeNames() {
		path := filepath.Join(m.Root, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			created = append(created, name)
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create volume %s: %w", name, err)
		}
	}
	for _, svcName := range st.ServiceNames() {
		for _, mount := range st.Services[svcName].Volumes {
			path, err := m.Resolve(mount)
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, fmt.Errorf("create mount %s for service %s: %w", mount.Source, svcName, err)
			}
		}
	}
	return created, nil
}

// Env returns the GANTRY_VOLUME_* variables for a service's mounts, one per
// mount, valued with the resolved host path.
func (m *Manager) Env(svc *stack.Service) ([]string, error) {
	var env []string
	for _, mount := range svc.Volumes {
		path, err := m.Resolve(mount)
		if err != nil {
			return nil, err
		}
		env = append(env, fmt.Sprintf("GANTRY_VOLUME_%s=%s", envKey(mount.Source), path))
	}
	sort.Strings(env)
	return env, nil
}

// List returns the named volumes present under the root, annotated with the
// writer service from the stack when one is given.
func (m *Manager) List(st *stack.Stack) ([]Info, error) {
	entries, err := os.ReadDir(m.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read volume root: %w", err)
	}

	writers := map[string]string{}
	if st != nil {
		for _, svcName := range st.ServiceNames() {
			for _, mount := range st.Services[svcName].Volumes {
				if !mount.IsBind() && !mount.ReadOnly {
					writers[mount.Source] = svcName
				}
			}
		}
	}

	var infos []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(m.Root, entry.Name())
		infos = append(infos, Info{
			Name:   entry.Name(),
			Path:   path,
			Writer: writers[entry.Name()],
			Size:   dirSize(path),
		})
	}
	return infos, nil
}

// Inspect returns the Info for one named volume.
func (m *Manager) Inspect(name string, st *stack.Stack) (*Info, error) {
	infos, err := m.List(st)
	if err != nil {
		return nil, err
	}
	for i := range infos {
		if infos[i].Name == name {
			return &infos[i], nil
		}
	}
	return nil, fmt.Errorf("volume %s not found", name)
}

// Remove deletes a named volume and its contents. Removal is always
// explicit; nothing in the supervisor calls this, and it refuses while a
// live supervisor advertises itself in the state directory.
func (m *Manager) Remove(name string) error {
	if d, err := server.ReadDiscovery(m.stateDir); err == nil && d.Alive() {
		return fmt.Errorf("volume %s is in use: a supervisor (pid %d) is running", name, d.PID)
	}
	path := filepath.Join(m.Root, name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("volume %s not found", name)
	}
	return os.RemoveAll(path)
}

func dirSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}

// envKey flattens a mount source into an environment variable suffix:
// uppercased, runs of other characters collapsed to single underscores.
func envKey(source string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToUpper(source) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}
