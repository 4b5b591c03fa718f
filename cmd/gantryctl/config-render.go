package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configRenderCmd represents the config render command
var configRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a stack file with interpolation applied",
	Long: `Render a stack file with interpolation applied.

Prints the stack as YAML after resolving ${VAR} references against the
process environment and the .env file beside the stack file. Useful for
checking what the supervisor will actually run.

Example:
  gantryctl config render -f examples/paper-trading/stack.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")

		st, err := validateStack(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		out, err := st.Render()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render stack: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(out))
	},
}

func init() {
	configCmd.AddCommand(configRenderCmd)
}
