package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aretw0/fenced"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a document root",
	Long: `Initialize a document root in the current directory (or --root): creates the
.fenced directory and writes the default settings to .fenced/config.json.
With --versioning the directory also becomes a git repository.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := viper.GetString("root")
		if root == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			root = cwd
		}
		viper.Set("root", root)

		app, err := openApp(fenced.WithAutoInit(true))
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		created, err := app.InitSettings()
		if err != nil {
			return fmt.Errorf("write settings: %w", err)
		}

		if created {
			fmt.Fprintln(cmd.OutOrStdout(), "Initialized fenced root in", app.Root)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Settings already present in", app.Root)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
