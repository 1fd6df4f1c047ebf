package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the internal state of the document store as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		state := map[string]any{
			"root":       app.Root,
			"settings":   app.Settings(),
			"components": app.Status(),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
