package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// volumeInspectCmd represents the volume inspect command
var volumeInspectCmd = &cobra.Command{
	Use:   "inspect NAME",
	Short: "Show one named volume",
	Long: `Show one named volume as JSON.

Example:
  gantryctl volume inspect dbdata`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mgr, st, err := volumeManager(cmd)
		if err != nil {
			fail("%v", err)
		}
		info, err := mgr.Inspect(args[0], st)
		if err != nil {
			fail("%v", err)
		}
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fail("%v", err)
		}
		fmt.Println(string(out))
	},
}

func init() {
	volumeCmd.AddCommand(volumeInspectCmd)
}
