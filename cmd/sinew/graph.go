package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <asset>",
	Short: "Export an asset as a Mermaid diagram",
	Long:  `Compiles the asset and prints a Mermaid flowchart for graphs or a state diagram for state machines.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeEngine, _, err := openEngine(cmd, nil)
		if err != nil {
			return err
		}
		defer closeEngine()

		output, err := engine.Mermaid(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
