package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/stack"
	"github.com/gantry-sh/gantry/pkg/stack/graph"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a stack file",
	Long: `Validate a stack file.

Checks the static invariants: every service has a command, dependency
references resolve and carry a satisfiable condition, probes are well
formed, declared host ports don't collide, named volumes are declared, each
volume has a single writer, and the dependency graph is acyclic. All
problems are reported at once.

Example:
  gantryctl config validate
  gantryctl config validate -f examples/paper-trading/stack.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")

		if _, err := validateStack(file); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s is valid\n", file)
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}

func validateStack(file string) (*stack.Stack, error) {
	st, err := stack.Load(file)
	if err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	if _, err := graph.New(st); err != nil {
		return nil, err
	}
	return st, nil
}
