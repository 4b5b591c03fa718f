package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/state"
	stategorm "github.com/gantry-sh/gantry/pkg/state/gorm"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded startup cycles",
	Long: `List recorded startup cycles, most recent first.

Each run shows its outcome: running, succeeded, failed, or stopped.

Example:
  gantryctl runs
  gantryctl runs --limit 5`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}
		limit, _ := cmd.Flags().GetInt("limit")

		gdb, err := stategorm.Open(stateDatabaseURL(cfg))
		if err != nil {
			fail("Failed to open state store: %v", err)
		}
		store := stategorm.NewStore(gdb)

		runs, err := store.ListRuns(limit)
		if err != nil {
			fail("Failed to list runs: %v", err)
		}
		printRuns(runs)
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().Int("limit", 20, "Maximum number of runs to show")
}

func printRuns(runs []state.Run) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tFINISHED\tOUTCOME\tERROR")
	for _, r := range runs {
		finished := ""
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), finished, r.Outcome, r.Error)
	}
	_ = w.Flush()
}
