package main

import (
	"github.com/aretw0/sinew/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Evaluate a graph frame by frame",
	Long: `Evaluates a graph asset for a number of frames and prints one line per frame.
Without --asset the entry point is "main", "index" or the asset named after the directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		opts := cli.RunOptions{EngineOptions: engineOptions(cmd, args)}
		opts.Asset, _ = flags.GetString("asset")
		opts.Frames, _ = flags.GetInt("frames")
		opts.Delta, _ = flags.GetFloat64("delta")
		opts.Inputs, _ = flags.GetString("inputs")
		opts.Events, _ = flags.GetStringArray("event")
		opts.EventsPin, _ = flags.GetString("events-pin")
		opts.JSON, _ = flags.GetBool("json")
		opts.Watch, _ = flags.GetBool("watch")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		err = cli.Execute(ctx, opts, cmd.OutOrStdout(), logger)
		if cli.IsInterrupted(err) {
			logger.Info("run interrupted", "signal", ctx.Signal())
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("asset", "a", "", "Graph asset to evaluate")
	runCmd.Flags().IntP("frames", "n", 60, "Number of frames to evaluate")
	runCmd.Flags().Float64P("delta", "d", 1.0/60, "Seconds advanced per frame")
	runCmd.Flags().String("inputs", "", "Graph input values as a JSON object")
	runCmd.Flags().StringArrayP("event", "e", nil, "Fire an event on a frame, as FRAME:NAME (repeatable)")
	runCmd.Flags().String("events-pin", "events", "Graph input receiving the events")
	runCmd.Flags().Bool("json", false, "Print frames as NDJSON")
	runCmd.Flags().BoolP("watch", "w", false, "Re-run whenever an asset changes")
}
