package gorm

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/gantry-sh/gantry/db"
)

// Dialect returns the migration dialect directory for a state database URL.
func Dialect(url string) string {
	if IsPostgres(url) {
		return "postgres"
	}
	return "sqlite"
}

// Migrate brings the state database schema up to date from the embedded
// migrations for the URL's dialect. An already current schema is not an
// error.
func Migrate(url string) error {
	m, err := NewMigrate(url)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// NewMigrate builds a migrate instance over the embedded migrations.
func NewMigrate(url string) (*migrate.Migrate, error) {
	dialect := Dialect(url)
	migrationsFS, err := fs.Sub(db.Migrations, "migrations/"+dialect)
	if err != nil {
		return nil, fmt.Errorf("embedded %s migrations: %w", dialect, err)
	}
	src, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("create iofs driver: %w", err)
	}
	return NewMigrateFrom("iofs", src, url)
}

// NewMigrateFrom builds a migrate instance for the state database URL over
// an explicit migration source. PostgreSQL resolves through migrate's own
// database driver; SQLite binds migrate to a connection from the gorm
// dialector's driver, keeping a single driver named "sqlite" in the binary.
func NewMigrateFrom(sourceName string, src source.Driver, url string) (*migrate.Migrate, error) {
	if IsPostgres(url) {
		return migrate.NewWithSourceInstance(sourceName, src, url)
	}

	path := strings.TrimPrefix(url, "sqlite://")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database %s: %w", path, err)
	}
	drv, err := newSqliteMigrator(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return migrate.NewWithInstance(sourceName, src, "sqlite", drv)
}
