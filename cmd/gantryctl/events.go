package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/state"
	stategorm "github.com/gantry-sh/gantry/pkg/state/gorm"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List lifecycle events of a run",
	Long: `List lifecycle events of a run.

Events cover run start and finish, service state transitions, probe
attempts, and volume creation. Without --run the latest run is shown.

Example:
  gantryctl events
  gantryctl events --run 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}
		runID, _ := cmd.Flags().GetString("run")

		gdb, err := stategorm.Open(stateDatabaseURL(cfg))
		if err != nil {
			fail("Failed to open state store: %v", err)
		}
		store := stategorm.NewStore(gdb)

		if runID == "" {
			run, err := store.LatestRun()
			if err != nil {
				fail("No runs recorded: %v", err)
			}
			runID = run.ID
		} else if _, err := store.GetRun(runID); err != nil {
			fail("Unknown run %s: %v", runID, err)
		}

		evts, err := store.ListEvents(runID)
		if err != nil {
			fail("Failed to list events: %v", err)
		}
		printEvents(evts)
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().String("run", "", "Show a specific run instead of the latest")
}

func printEvents(evts []state.Event) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSEVERITY\tSERVICE\tKIND\tMESSAGE")
	for _, e := range evts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.At.Format("15:04:05.000"), e.Severity, e.Service, e.Kind, e.Message)
	}
	_ = w.Flush()
}
