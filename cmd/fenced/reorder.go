package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder DOCUMENT FROM TO",
	Short: "Move an item of a fenced list region",
	Long: "Move the item at position FROM (0-based) to position TO inside the\n" +
		"```<kind> fenced list of DOCUMENT. Numbered items are renumbered;\n" +
		"everything outside the list is left as is.",
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("FROM must be a number: %w", err)
		}
		to, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("TO must be a number: %w", err)
		}
		kind, _ := cmd.Flags().GetString("kind")

		app, err := openApp()
		if err != nil {
			return err
		}
		if err := app.Reorder(cmd.Context(), args[0], kind, from, to); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved item %d to %d in %s\n", from, to, args[0])
		return nil
	},
}

func init() {
	reorderCmd.Flags().StringP("kind", "k", "tasks", "kind of the fenced list region")
	rootCmd.AddCommand(reorderCmd)
}
