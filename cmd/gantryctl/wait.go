package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/stack"
	"github.com/gantry-sh/gantry/pkg/state"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait SERVICE",
	Short: "Wait for a service to reach a readiness condition",
	Long: `Wait for a service to reach a readiness condition by polling the
control API of the running supervisor.

This command repeatedly checks the service state until it reaches the
requested condition, fails, or the maximum number of retries is reached.

Example:
  gantryctl wait database --condition service_healthy
  gantryctl wait test-runner --condition service_completed_successfully --retries 60`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}

		service := args[0]
		condition, _ := cmd.Flags().GetString("condition")
		retries, _ := cmd.Flags().GetInt("retries")
		interval, _ := cmd.Flags().GetDuration("interval")

		cond, err := stack.ConditionString(condition)
		if err != nil {
			fail("Invalid condition %q: %v", condition, err)
		}

		client, err := discoverAPI(cfg)
		if err != nil {
			fail("%v", err)
		}

		if err := waitForService(client, service, cond, retries, interval); err != nil {
			fmt.Fprintf(os.Stderr, "Service did not become ready: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s reached %s\n", service, cond)
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().StringP("condition", "c", stack.ConditionServiceStarted.String(), "Condition to wait for")
	waitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
	waitCmd.Flags().DurationP("interval", "i", time.Second, "Delay between retries")
}

func waitForService(client *apiClient, service string, cond stack.Condition, retries int, interval time.Duration) error {
	fmt.Printf("Waiting for %s to reach %s...\n", service, cond)

	for i := 0; i < retries; i++ {
		var st state.ServiceState
		if err := client.getJSON("/services/"+service, &st); err == nil {
			if satisfies(st.Status, cond) {
				fmt.Println()
				return nil
			}
			if st.Status.Terminal() {
				fmt.Println()
				return fmt.Errorf("%s is %s and will not reach %s", service, st.Status, cond)
			}
		}

		fmt.Print(".")
		time.Sleep(interval)
	}

	fmt.Println()
	return fmt.Errorf("%s did not reach %s after %d attempts", service, cond, retries)
}

// satisfies maps lifecycle states onto readiness conditions.
func satisfies(status state.Status, cond stack.Condition) bool {
	switch cond {
	case stack.ConditionServiceHealthy:
		return status == state.StatusHealthy
	case stack.ConditionServiceCompletedSuccessfully:
		return status == state.StatusCompleted
	default:
		return status == state.StatusStarted || status == state.StatusHealthy ||
			status == state.StatusCompleted
	}
}
