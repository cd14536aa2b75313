package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/sinew/internal/dto"
	"github.com/aretw0/sinew/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var pinsCmd = &cobra.Command{
	Use:   "pins <asset>",
	Short: "Describe the pins, nodes and edges of an asset",
	Long: `Describes a compiled asset as markdown, rendered for the terminal when stdout
is one, or as JSON with --json.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeEngine, _, err := openEngine(cmd, nil)
		if err != nil {
			return err
		}
		defer closeEngine()
		jsonMode, _ := cmd.Flags().GetBool("json")
		out := cmd.OutOrStdout()

		var desc any
		var markdown string
		if g, err := engine.Graph(cmd.Context(), args[0]); err == nil {
			d := dto.DescribeGraph(g)
			desc, markdown = d, tui.GraphMarkdown(d)
		} else {
			m, err := engine.Machine(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			d := dto.DescribeMachine(m)
			desc, markdown = d, tui.MachineMarkdown(d)
		}

		if jsonMode {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(desc)
		}
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			render, err := tui.NewRenderer()
			if err != nil {
				return err
			}
			if markdown, err = render(markdown); err != nil {
				return err
			}
		}
		fmt.Fprint(out, markdown)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pinsCmd)
	pinsCmd.Flags().Bool("json", false, "Print the description as JSON")
}
