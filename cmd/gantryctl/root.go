package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/config"
	"github.com/gantry-sh/gantry/pkg/log"
)

var rootCmd = &cobra.Command{
	Use:   "gantryctl",
	Short: "Supervise a stack of host processes with ordered, health-gated startup",
	Long: `gantryctl runs a declared stack of host processes in dependency order.

Services declare commands, readiness probes, and dependencies in a stack.yml
file. The supervisor starts each service only once the services it depends on
have reached the required readiness condition, and tears everything down in
reverse order on shutdown.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a gantry config file")
}

// loadConfig resolves the supervisor configuration for a command and wires
// the shared logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := log.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
