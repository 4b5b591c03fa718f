package gorm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseFileName is the default SQLite file under the state directory.
const DatabaseFileName = "gantry.db"

// IsPostgres reports whether the URL selects the PostgreSQL backend.
func IsPostgres(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// Open connects to the state database. A postgres:// URL opens PostgreSQL;
// anything else is treated as a SQLite file path (an optional sqlite://
// prefix is stripped).
func Open(url string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	if IsPostgres(url) {
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  url,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}), cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to state database: %w", err)
		}
		return db, nil
	}

	path := strings.TrimPrefix(url, "sqlite://")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open state database %s: %w", path, err)
	}
	return db, nil
}

// DefaultURL returns the SQLite path for a state directory.
func DefaultURL(stateDir string) string {
	return filepath.Join(stateDir, DatabaseFileName)
}
