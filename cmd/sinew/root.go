package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/sinew"
	"github.com/aretw0/sinew/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sinew",
	Short: "Sinew evaluates animation graphs and state machines",
	Long: `Sinew compiles animation graphs and state machines from YAML assets and
evaluates them frame by frame, from the terminal or over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing the asset library")
	flags.String("redis", "", "Read assets from this Redis address instead of --dir")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database number")
	flags.String("redis-prefix", "", "Key prefix of the asset library in Redis")
	flags.String("log-level", "", "Log level (debug, info, warn, error); quiet when empty")
	flags.String("log-format", "text", "Log format (text or json)")
	flags.Bool("debug", false, "Enable debug logs including node passes")
	flags.Bool("prune", false, "Drop illegal edges instead of rejecting the graph")
}

// engineOptions reads the persistent flags. A positional argument stands in
// for --dir when the flag was not set.
func engineOptions(cmd *cobra.Command, args []string) cli.EngineOptions {
	flags := cmd.Flags()
	opts := cli.EngineOptions{}
	opts.Dir, _ = flags.GetString("dir")
	if !flags.Changed("dir") && len(args) > 0 {
		opts.Dir = args[0]
	}
	opts.RedisAddr, _ = flags.GetString("redis")
	opts.RedisPassword, _ = flags.GetString("redis-password")
	opts.RedisDB, _ = flags.GetInt("redis-db")
	opts.RedisPrefix, _ = flags.GetString("redis-prefix")
	opts.Prune, _ = flags.GetBool("prune")
	opts.Debug, _ = flags.GetBool("debug")
	return opts
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.NewLogger(os.Stderr, level, format, debug)
}

// openEngine builds the engine for commands that only read assets.
func openEngine(cmd *cobra.Command, args []string) (*sinew.Engine, func(), *slog.Logger, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	engine, closeEngine, err := cli.CreateEngine(engineOptions(cmd, args), logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return engine, closeEngine, logger, nil
}
