package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// volumeRmCmd represents the volume rm command
var volumeRmCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Remove a named volume and its contents",
	Long: `Remove a named volume and its contents.

The supervisor never removes volumes on its own; this is the only way data
in a named volume is deleted.

Example:
  gantryctl volume rm dbdata`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mgr, _, err := volumeManager(cmd)
		if err != nil {
			fail("%v", err)
		}
		if err := mgr.Remove(args[0]); err != nil {
			fail("%v", err)
		}
		fmt.Printf("Removed volume %s\n", args[0])
	},
}

func init() {
	volumeCmd.AddCommand(volumeRmCmd)
}
