package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Compile every asset and report failures",
	Long:  `Compiles all graphs and state machines of the library, including nested references, and reports the assets that fail.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeEngine, _, err := openEngine(cmd, args)
		if err != nil {
			return err
		}
		defer closeEngine()

		failures, err := engine.Validate(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(failures) == 0 {
			fmt.Fprintln(out, "Library is valid! ✅")
			return nil
		}
		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "❌ %s: %v\n", name, failures[name])
		}
		return fmt.Errorf("%d of the assets failed validation", len(failures))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
