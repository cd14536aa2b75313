package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/aretw0/sinew/internal/cli"
	"github.com/aretw0/sinew/pkg/adapters/file"
	"github.com/aretw0/sinew/pkg/ports"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [dir]",
	Short: "Copy the assets of a directory into Redis",
	Long:  `Uploads every asset of --dir to the Redis library given by --redis. Running engines watching that library reload the changed assets.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := engineOptions(cmd, args)
		if opts.RedisAddr == "" {
			return errors.New("sync requires --redis")
		}
		engine, closeEngine, logger, err := openEngine(cmd, args)
		if err != nil {
			return err
		}
		defer closeEngine()

		store, ok := engine.Loader().(ports.AssetStore)
		if !ok {
			return fmt.Errorf("loader %T is read-only", engine.Loader())
		}
		dir, err := filepath.Abs(opts.Dir)
		if err != nil {
			return err
		}
		copied, err := cli.Sync(cmd.Context(), file.New(dir), store, logger)
		for _, name := range copied {
			fmt.Fprintf(cmd.OutOrStdout(), "synced %s\n", name)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
