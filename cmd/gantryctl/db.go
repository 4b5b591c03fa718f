package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/config"
	stategorm "github.com/gantry-sh/gantry/pkg/state/gorm"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the state database",
	Long:  `Manage the state database schema and migrations.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'db' requires a subcommand (migrate, version)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
}

// stateDatabaseURL picks the configured PostgreSQL URL or the embedded
// SQLite file under the state directory.
func stateDatabaseURL(cfg *config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return stategorm.DefaultURL(cfg.StateDir)
}
