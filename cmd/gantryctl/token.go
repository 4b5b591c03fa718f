package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage control API tokens",
	Long:  `Manage the bearer tokens that authorize mutating control API calls.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'token' requires a subcommand (create)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
