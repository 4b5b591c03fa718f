package gorm

import (
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantry-sh/gantry/pkg/state"
)

// The gorm dialector and the migration path must share the single
// registered sqlite driver; this drives both against the same database file
// in one process.
func TestMigrateThenOpenSqlite(t *testing.T) {
	url := DefaultURL(t.TempDir())

	require.NoError(t, Migrate(url))
	// Nothing left to apply is not an error.
	require.NoError(t, Migrate(url))

	m, err := NewMigrate(url)
	require.NoError(t, err)
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)
	_, _ = m.Close()

	db, err := Open(url)
	require.NoError(t, err)
	store := NewStore(db)
	require.NoError(t, store.CheckConnectivity())

	require.NoError(t, store.CreateRun(&state.Run{
		ID:        "run-migrate-1",
		StackPath: "stack.yml",
		StartedAt: time.Now(),
	}))
	run, err := store.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, state.OutcomeRunning, run.Outcome)
}

func TestMigrateVersionBeforeAnyRun(t *testing.T) {
	url := DefaultURL(t.TempDir())

	m, err := NewMigrate(url)
	require.NoError(t, err)
	defer func() { _, _ = m.Close() }()

	_, _, err = m.Version()
	assert.ErrorIs(t, err, migrate.ErrNilVersion)
}
