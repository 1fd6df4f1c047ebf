package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aretw0/fenced"
	"github.com/aretw0/fenced/pkg/notify"
	"github.com/aretw0/fenced/pkg/pipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check [documents...]",
	Short: "Validate documents without changing them",
	Long: `Validate the given documents, or every document of the root, and print a
report. Exits with status 1 when any document has validation errors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(quiet)
		if err != nil {
			return err
		}
		results, runErr := app.Check(cmd.Context(), args...)
		return report(cmd.OutOrStdout(), results, runErr)
	},
}

var fixCmd = &cobra.Command{
	Use:   "fix [documents...]",
	Short: "Populate missing fields once, then validate",
	Long: `Fill in the missing fields of the given documents, or of every document of
the root, and validate the result. Exits with status 1 when any document
still has validation errors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(quiet)
		if err != nil {
			return err
		}
		results, runErr := app.Fix(cmd.Context(), args...)
		return report(cmd.OutOrStdout(), results, runErr)
	},
}

// quiet drops notifications; the report carries the same messages.
var quiet = fenced.WithNotifier(notify.Multi(nil))

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
}

// report prints results and turns validation errors into a failing exit.
func report(w io.Writer, results []fenced.Result, runErr error) error {
	invalid := 0
	for _, r := range results {
		if r.Validation != nil && !r.Validation.Valid {
			invalid++
		}
	}

	if viper.GetBool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		renderResults(w, results)
		fmt.Fprintf(w, "%d document(s) checked, %d with errors\n", countDocs(results), invalid)
	}

	if runErr != nil {
		return runErr
	}
	if invalid > 0 {
		return errReported
	}
	return nil
}

func renderResults(w io.Writer, results []fenced.Result) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Document", "Status", "Details"})
	rows := 0
	for _, r := range results {
		status, details := describe(r)
		if status == "" {
			continue
		}
		tw.AppendRow(table.Row{r.Path, status, details})
		rows++
	}
	if rows > 0 {
		tw.Render()
	}
}

// describe summarizes a result. Documents that do not opt in are left out.
func describe(r fenced.Result) (string, string) {
	var details []string
	if r.Wrote {
		details = append(details, "filled: "+strings.Join(r.Filled, ", "))
	}

	switch {
	case r.Skipped && r.Reason == pipeline.ReasonMalformed:
		return "malformed", r.Reason
	case r.Skipped:
		return "", ""
	case r.Validation == nil:
		if r.Wrote {
			return "fixed", strings.Join(details, "\n")
		}
		return "", ""
	}

	details = append(details, r.Validation.ErrorMessages()...)
	details = append(details, r.Validation.WarningMessages()...)
	status := "ok"
	switch {
	case !r.Validation.Valid:
		status = "invalid"
	case len(r.Validation.Warnings) > 0:
		status = "warning"
	case r.Wrote:
		status = "fixed"
	}
	return status, strings.Join(details, "\n")
}

func countDocs(results []fenced.Result) int {
	seen := make(map[string]bool)
	for _, r := range results {
		seen[r.Path] = true
	}
	return len(seen)
}
