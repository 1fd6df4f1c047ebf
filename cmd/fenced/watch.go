package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Populate and validate documents on every change",
	Long: `Watch the document root. Documents changed since the last run are processed
first; afterwards every change is debounced and run through the pipeline
until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := app.Watch(ctx); err != nil {
			return err
		}
		slog.Info("stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
