package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// downCmd represents the down command
var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop the running stack",
	Long: `Stop the running stack.

Finds the running supervisor through the state directory and asks it to stop
every service in reverse start order. Requires an API key (GANTRY_API_KEY or
api_key in the config file) matching the supervisor's.

Example:
  gantryctl down`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}

		client, err := discoverAPI(cfg)
		if err != nil {
			fail("%v", err)
		}
		if err := client.post("/stop"); err != nil {
			fail("Failed to stop stack: %v", err)
		}
		fmt.Println("Stack is stopping")
	},
}

func init() {
	rootCmd.AddCommand(downCmd)
}
