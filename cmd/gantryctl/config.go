package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/stack"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect a stack file",
	Long:  `Inspect a stack file: validate it, render it, or print its dependency graph.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'config' requires a subcommand (validate, render, graph, watch)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.PersistentFlags().StringP("file", "f", stack.DefaultFileName, "Path to the stack file")
}
