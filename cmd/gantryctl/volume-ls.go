package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// volumeLsCmd represents the volume ls command
var volumeLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List named volumes",
	Long: `List the named volumes materialized under the state directory.

When the stack file is readable the writer service of each volume is shown.

Example:
  gantryctl volume ls`,
	Run: func(cmd *cobra.Command, args []string) {
		mgr, st, err := volumeManager(cmd)
		if err != nil {
			fail("%v", err)
		}
		infos, err := mgr.List(st)
		if err != nil {
			fail("Failed to list volumes: %v", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tWRITER\tSIZE\tPATH")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", info.Name, info.Writer, info.Size, info.Path)
		}
		_ = w.Flush()
	},
}

func init() {
	volumeCmd.AddCommand(volumeLsCmd)
}
