package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/server/middleware"
)

// tokenCreateCmd represents the token create command
var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a control API token",
	Long: `Issue a bearer token for the control API, signed with the configured
API key.

The token authorizes mutating endpoints (stopping services, stopping the
stack) on a supervisor started with the same API key.

Example:
  gantryctl token create
  gantryctl token create --subject ci --ttl 15m`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}
		if cfg.APIKey == "" {
			fail("No API key configured; set GANTRY_API_KEY or api_key in the config file")
		}

		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		token, err := middleware.IssueToken([]byte(cfg.APIKey), subject, ttl)
		if err != nil {
			fail("Failed to issue token: %v", err)
		}
		fmt.Println(token)
	},
}

func init() {
	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCreateCmd.Flags().String("subject", "gantryctl", "Token subject")
	tokenCreateCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
}
