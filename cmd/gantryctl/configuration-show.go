package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show gantry configuration attributes and their sources",
	Long: `Show gantry configuration attributes and their sources.

The values displayed by this command reflect the current state of the
configuration sources, the environment variables and config file. These may
not reflect the values used by a supervisor that is already running.

Config file location: /etc/gantry/config.yml, ~/.config/gantry/config.yml,
GANTRY_CONFIG, or --config.

Example:
  gantryctl configuration show
  gantryctl configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		path, _ := cmd.Flags().GetString("config")

		if err := showConfiguration(path, output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(path, output string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if output == "json" {
		jsonOutput, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Println(jsonOutput)
		return nil
	}

	fmt.Print(cfg.FormatText())
	return nil
}
