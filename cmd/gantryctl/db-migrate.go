package main

import (
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

// dbMigrateCmd represents the db migrate command
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and/or upgrade the state database schema",
	Long: `Create and/or upgrade the state database schema.

This command runs all pending migrations to bring the schema up to date.
The dialect (SQLite or PostgreSQL) follows the state database URL.

Example:
  gantryctl db migrate`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}
		if err := runMigrations(stateDatabaseURL(cfg)); err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
			os.Exit(1)
		}
	},
}

// dbVersionCmd represents the db version command
var dbVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current migration version",
	Long:  `Show the current state database migration version.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}
		if err := showMigrationVersion(stateDatabaseURL(cfg)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get version: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbVersionCmd)
}

func runMigrations(dbURL string) error {
	m, err := createMigrateInstance(dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, _ := m.Version()
	fmt.Printf("Current version: %d (dirty: %v)\n", version, dirty)

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			fmt.Println("No migrations to run - state database is up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	newVersion, _, _ := m.Version()
	fmt.Printf("Migrated to version: %d\n", newVersion)
	return nil
}

func showMigrationVersion(dbURL string) error {
	m, err := createMigrateInstance(dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		fmt.Println("No migrations have been run")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Version: %d (dirty: %v)\n", version, dirty)
	return nil
}
