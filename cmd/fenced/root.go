package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aretw0/fenced"
	"github.com/aretw0/fenced/pkg/notify"
)

// errReported is returned by commands that already printed why they failed.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:   "fenced",
	Short: "Keeps the frontmatter of plain-text task documents filled in and valid",
	Long: `fenced watches a directory of Markdown documents. Documents that opt in with
"task: true" in their frontmatter get missing fields populated from the schema
defaults and are validated against the schema on every change.

Flags can also be set through FENCED_* environment variables,
e.g. FENCED_ROOT or FENCED_DEBOUNCE.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("FENCED")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "enable verbose logging")
	flags.StringP("root", "r", "", "document root (default: nearest directory with .fenced or .git)")
	flags.Bool("read-only", false, "never write documents")
	flags.Bool("versioning", false, "commit every write to git (overrides the setting)")
	flags.Duration("debounce", 0, "quiet period before a change is processed (overrides the setting)")
	flags.StringSlice("lists", nil, "fenced list region kinds to check, e.g. tasks")
	flags.Bool("json", false, "output JSON")
	for _, name := range []string{"verbose", "root", "read-only", "versioning", "debounce", "lists", "json"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// resolveRoot picks the document root: the flag, else the nearest root above
// the working directory, else the working directory.
func resolveRoot() (string, error) {
	if root := viper.GetString("root"); root != "" {
		return root, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root, err := fenced.FindRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

// openApp opens the document root with the options derived from flags and env.
func openApp(extra ...fenced.Option) (*fenced.App, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}

	opts := []fenced.Option{
		fenced.WithLogger(slog.Default()),
		fenced.WithReadOnly(viper.GetBool("read-only")),
		fenced.WithListRegions(viper.GetStringSlice("lists")...),
		fenced.WithNotifier(notify.NewLogNotifier(slog.Default())),
	}
	if viper.IsSet("versioning") {
		opts = append(opts, fenced.WithVersioning(viper.GetBool("versioning")))
	}
	if d := viper.GetDuration("debounce"); d > 0 {
		opts = append(opts, fenced.WithDebounce(d))
	}
	return fenced.New(root, append(opts, extra...)...)
}
