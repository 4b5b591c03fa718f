package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/config"
	"github.com/gantry-sh/gantry/pkg/state"
	stategorm "github.com/gantry-sh/gantry/pkg/state/gorm"
)

// psCmd represents the ps command
var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "Show service states",
	Long: `Show service states.

With a running supervisor, states come live from the control API. Otherwise
the last persisted run is read from the state store.

Example:
  gantryctl ps
  gantryctl ps --run 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}
		runID, _ := cmd.Flags().GetString("run")

		states, err := serviceStates(cfg, runID)
		if err != nil {
			fail("%v", err)
		}
		printStates(states)
	},
}

func init() {
	rootCmd.AddCommand(psCmd)
	psCmd.Flags().String("run", "", "Show a specific run instead of the latest")
}

func serviceStates(cfg *config.Config, runID string) ([]state.ServiceState, error) {
	if runID == "" {
		if client, err := discoverAPI(cfg); err == nil {
			var states []state.ServiceState
			if err := client.getJSON("/services", &states); err == nil {
				return states, nil
			}
		}
	}

	gdb, err := stategorm.Open(stateDatabaseURL(cfg))
	if err != nil {
		return nil, err
	}
	store := stategorm.NewStore(gdb)

	if runID == "" {
		run, err := store.LatestRun()
		if err != nil {
			return nil, fmt.Errorf("no runs recorded: %w", err)
		}
		runID = run.ID
	}
	return store.ListServiceStates(runID)
}

func printStates(states []state.ServiceState) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSTATUS\tPID\tEXIT\tERROR")
	for _, st := range states {
		pid := ""
		if st.PID != 0 {
			pid = fmt.Sprintf("%d", st.PID)
		}
		exit := ""
		if st.ExitCode != nil {
			exit = fmt.Sprintf("%d", *st.ExitCode)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", st.Service, st.Status, pid, exit, st.Error)
	}
	_ = w.Flush()
}
