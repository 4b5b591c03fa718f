package gorm

import (
	"database/sql"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4/database"
)

const migrationsTable = "schema_migrations"

// sqliteMigrator adapts a SQLite connection to golang-migrate's
// database.Driver. migrate's bundled sqlite driver links a second fork of
// the modernc driver under the same database/sql name as the gorm
// dialector's, which panics at init; binding migrate to a connection from
// the one registered driver avoids the clash.
type sqliteMigrator struct {
	db     *sql.DB
	locked atomic.Bool
}

func newSqliteMigrator(db *sql.DB) (*sqliteMigrator, error) {
	if err := db.Ping(); err != nil {
		return nil, err
	}
	m := &sqliteMigrator{db: db}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (version uint64, dirty bool)`, migrationsTable)
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}
	return m, nil
}

// Open is part of database.Driver but only serves URL-based construction;
// this driver is always instance-bound.
func (m *sqliteMigrator) Open(string) (database.Driver, error) {
	return nil, fmt.Errorf("sqlite migrator must be bound to an open connection")
}

func (m *sqliteMigrator) Close() error {
	return m.db.Close()
}

func (m *sqliteMigrator) Lock() error {
	if !m.locked.CompareAndSwap(false, true) {
		return database.ErrLocked
	}
	return nil
}

func (m *sqliteMigrator) Unlock() error {
	m.locked.Store(false)
	return nil
}

func (m *sqliteMigrator) Run(migration io.Reader) error {
	statements, err := io.ReadAll(migration)
	if err != nil {
		return err
	}
	return m.inTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(string(statements))
		return err
	})
}

func (m *sqliteMigrator) SetVersion(version int, dirty bool) error {
	return m.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM ` + migrationsTable); err != nil {
			return err
		}
		if version >= 0 || (version == database.NilVersion && dirty) {
			query := fmt.Sprintf(`INSERT INTO %s (version, dirty) VALUES (?, ?)`, migrationsTable)
			if _, err := tx.Exec(query, version, dirty); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *sqliteMigrator) Version() (int, bool, error) {
	var version int
	var dirty bool
	err := m.db.QueryRow(`SELECT version, dirty FROM ` + migrationsTable + ` LIMIT 1`).Scan(&version, &dirty)
	switch {
	case err == sql.ErrNoRows:
		return database.NilVersion, false, nil
	case err != nil:
		return 0, false, err
	}
	return version, dirty, nil
}

func (m *sqliteMigrator) Drop() error {
	rows, err := m.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, table := range tables {
		if _, err := m.db.Exec(`DROP TABLE ` + table); err != nil {
			return err
		}
	}
	return nil
}

func (m *sqliteMigrator) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
