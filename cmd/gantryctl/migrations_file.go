//go:build !embed_migrations

package main

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/file"

	stategorm "github.com/gantry-sh/gantry/pkg/state/gorm"
)

const defaultMigrationsPath = "db/migrations"

func createMigrateInstance(dbURL string) (*migrate.Migrate, error) {
	path := defaultMigrationsPath + "/" + stategorm.Dialect(dbURL)
	fmt.Printf("Running migrations from file://%s\n", path)
	src, err := (&file.File{}).Open("file://" + path)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations directory: %w", err)
	}
	return stategorm.NewMigrateFrom("file", src, dbURL)
}
