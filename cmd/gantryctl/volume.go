package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/stack"
	"github.com/gantry-sh/gantry/pkg/volume"
)

// volumeCmd represents the volume command
var volumeCmd = &cobra.Command{
	Use:   "volume",
	Short: "Manage named volumes",
	Long: `Manage named volumes.

Named volumes are directories under <state-dir>/volumes, created on first
use and kept across runs. They are only ever removed explicitly.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'volume' requires a subcommand (ls, inspect, rm)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(volumeCmd)
	volumeCmd.PersistentFlags().StringP("file", "f", stack.DefaultFileName, "Path to the stack file")
}

// volumeManager builds the Manager for a command, annotating from the stack
// file when it exists.
func volumeManager(cmd *cobra.Command) (*volume.Manager, *stack.Stack, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	file, _ := cmd.Flags().GetString("file")

	var st *stack.Stack
	stackDir := ""
	if loaded, err := stack.Load(file); err == nil {
		st = loaded
		stackDir = loaded.Dir()
	}
	return volume.NewManager(cfg.StateDir, stackDir), st, nil
}
