package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/fenced"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fenced",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fenced version %s\n", fenced.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
