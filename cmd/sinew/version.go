package main

import (
	"fmt"

	"github.com/aretw0/sinew"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sinew",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sinew version %s\n", sinew.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
