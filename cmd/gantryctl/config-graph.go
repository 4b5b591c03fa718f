package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/stack/graph"
)

// configGraphCmd represents the config graph command
var configGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the dependency graph of a stack",
	Long: `Print the dependency graph of a stack in start order.

Services are grouped into waves: every service in a wave waits only on
services in earlier waves. Edges show the readiness condition each
dependency must reach.

Example:
  gantryctl config graph -f examples/paper-trading/stack.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")

		st, err := validateStack(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		g, err := graph.New(st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		printGraph(g)
	},
}

func init() {
	configCmd.AddCommand(configGraphCmd)
}

func printGraph(g *graph.Graph) {
	for i, layer := range g.Layers() {
		fmt.Printf("wave %d: %s\n", i+1, strings.Join(layer, ", "))
	}
	fmt.Println()
	for _, name := range g.Nodes() {
		for _, edge := range g.Dependencies(name) {
			fmt.Printf("%s -> %s (%s)\n", edge.Dependent, edge.Dependency, edge.Condition)
		}
	}
}
