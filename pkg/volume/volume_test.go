package volume

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantry-sh/gantry/pkg/server"
	"github.com/gantry-sh/gantry/pkg/stack"
)

const volumeTestStack = `
services:
  database:
    command: ["postgres"]
    volumes:
      - dbdata:/var/lib/pg
  application:
    command: ["./bin/app"]
    volumes:
      - ./tokens:/data/tokens
      - dbdata:/snapshots:ro
volumes:
  dbdata: {}
`

func loadTestStack(t *testing.T) *stack.Stack {
	t.Helper()
	st, err := stack.Parse([]byte(volumeTestStack), nil)
	require.NoError(t, err)
	return st
}

func TestResolve(t *testing.T) {
	m := NewManager("/state", "/project")

	t.Run("named volume", func(t *testing.T) {
		path, err := m.Resolve(stack.MountSpec{Source: "dbdata", Target: "/var/lib/pg"})
		require.NoError(t, err)
		assert.Equal(t, "/state/volumes/dbdata", path)
	})

	t.Run("relative bind", func(t *testing.T) {
		path, err := m.Resolve(stack.MountSpec{Source: "./tokens", Target: "/data/tokens"})
		require.NoError(t, err)
		assert.Equal(t, "/project/tokens", path)
	})

	t.Run("absolute bind", func(t *testing.T) {
		path, err := m.Resolve(stack.MountSpec{Source: "/var/log/app", Target: "/logs"})
		require.NoError(t, err)
		assert.Equal(t, "/var/log/app", path)
	})
}

func TestEnsureAllCreatesAndPreserves(t *testing.T) {
	stateDir := t.TempDir()
	stackDir := t.TempDir()
	st := loadTestStack(t)
	m := NewManager(stateDir, stackDir)

	created, err := m.EnsureAll(st)
	require.NoError(t, err)
	assert.Equal(t, []string{"dbdata"}, created)
	assert.DirExists(t, filepath.Join(stateDir, "volumes", "dbdata"))
	assert.DirExists(t, filepath.Join(stackDir, "tokens"))

	// Survives a second run, contents intact, and nothing reported created.
	marker := filepath.Join(stateDir, "volumes", "dbdata", "PG_VERSION")
	require.NoError(t, os.WriteFile(marker, []byte("16\n"), 0o644))
	created, err = m.EnsureAll(st)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.FileExists(t, marker)
}

func TestEnv(t *testing.T) {
	m := NewManager("/state", "/project")
	st := loadTestStack(t)

	env, err := m.Env(st.Services["application"])
	require.NoError(t, err)
	assert.Equal(t, []string{
		"GANTRY_VOLUME_DBDATA=/state/volumes/dbdata",
		"GANTRY_VOLUME_TOKENS=/project/tokens",
	}, env)
}

func TestListInspectRemove(t *testing.T) {
	stateDir := t.TempDir()
	st := loadTestStack(t)
	m := NewManager(stateDir, t.TempDir())

	_, err := m.EnsureAll(st)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, "volumes", "dbdata", "base"), []byte("xxxx"), 0o644))

	infos, err := m.List(st)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "dbdata", infos[0].Name)
	assert.Equal(t, "database", infos[0].Writer)
	assert.Equal(t, int64(4), infos[0].Size)

	info, err := m.Inspect("dbdata", st)
	require.NoError(t, err)
	assert.Equal(t, infos[0], *info)

	require.NoError(t, m.Remove("dbdata"))
	_, err = m.Inspect("dbdata", st)
	assert.Error(t, err)
	assert.Error(t, m.Remove("dbdata"))
}

func TestRemoveRefusesWhileSupervisorRuns(t *testing.T) {
	stateDir := t.TempDir()
	st := loadTestStack(t)
	m := NewManager(stateDir, t.TempDir())

	_, err := m.EnsureAll(st)
	require.NoError(t, err)

	// A discovery file pointing at this test process counts as a live run.
	require.NoError(t, server.WriteDiscovery(stateDir, server.Discovery{
		PID:     os.Getpid(),
		Address: "127.0.0.1:7430",
		RunID:   "run-1",
	}))
	err = m.Remove("dbdata")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in use")
	assert.DirExists(t, filepath.Join(stateDir, "volumes", "dbdata"))

	// A stale file left by a dead supervisor does not block removal.
	require.NoError(t, server.WriteDiscovery(stateDir, server.Discovery{
		PID:     1 << 22,
		Address: "127.0.0.1:7430",
		RunID:   "run-1",
	}))
	require.NoError(t, m.Remove("dbdata"))
}
