package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect and edit the field schema",
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and custom fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		reg := app.Registry()

		if viper.GetBool("json") {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reg.EffectiveFields())
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(cmd.OutOrStdout())
		tw.AppendHeader(table.Row{"Key", "Name", "Type", "Required", "Default", "Values", "Source"})
		for _, f := range reg.EffectiveFields() {
			source := "custom"
			if schema.IsCoreKey(f.Key) {
				source = "built-in"
			}
			def := ""
			if f.HasDefault() {
				def = fmt.Sprint(f.Default)
			}
			tw.AppendRow(table.Row{f.Key, f.Label(), f.Type, f.Required, def, strings.Join(f.AllowedValues, ", "), source})
		}
		tw.Render()
		return nil
	},
}

var schemaAddCmd = &cobra.Command{
	Use:   "add KEY",
	Short: "Add a custom field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		def, err := applyFieldFlags(core.FieldDefinition{Key: args[0], Type: core.TypeText}, cmd.Flags())
		if err != nil {
			return err
		}
		if err := app.Registry().AddCustomField(def); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added field %s (%s)\n", def.Key, def.Type)
		return nil
	},
}

var schemaUpdateCmd = &cobra.Command{
	Use:   "update KEY",
	Short: "Update a custom field; only the given flags change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		reg := app.Registry()
		current, ok := reg.Field(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", core.ErrFieldNotFound, args[0])
		}
		def, err := applyFieldFlags(current, cmd.Flags())
		if err != nil {
			return err
		}
		if err := reg.UpdateCustomField(args[0], def); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated field %s\n", def.Key)
		return nil
	},
}

var schemaRemoveCmd = &cobra.Command{
	Use:   "remove KEY",
	Short: "Remove a custom field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		if schema.IsCoreKey(args[0]) {
			return fmt.Errorf("%s is a built-in field", args[0])
		}
		if err := app.Registry().RemoveCustomField(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed field %s\n", args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{schemaAddCmd, schemaUpdateCmd} {
		f := c.Flags()
		f.String("key", "", "new key (update only)")
		f.String("name", "", "display name")
		f.String("type", "", "value type: boolean, text, number, date, list or enum")
		f.Bool("required", false, "field must be present")
		f.String("default", "", "default value; lists and enum values are comma separated")
		f.StringSlice("values", nil, "allowed values of an enum")
		f.String("description", "", "description")
	}
	schemaAddCmd.Flags().MarkHidden("key")

	schemaCmd.AddCommand(schemaListCmd, schemaAddCmd, schemaUpdateCmd, schemaRemoveCmd)
	rootCmd.AddCommand(schemaCmd)
}

// applyFieldFlags overrides def with the flags the user set.
func applyFieldFlags(def core.FieldDefinition, flags *pflag.FlagSet) (core.FieldDefinition, error) {
	if flags.Changed("key") {
		def.Key, _ = flags.GetString("key")
	}
	if flags.Changed("name") {
		def.DisplayName, _ = flags.GetString("name")
	}
	if flags.Changed("type") {
		t, _ := flags.GetString("type")
		def.Type = core.ValueType(t)
	}
	if flags.Changed("required") {
		def.Required, _ = flags.GetBool("required")
	}
	if flags.Changed("values") {
		def.AllowedValues, _ = flags.GetStringSlice("values")
	}
	if flags.Changed("description") {
		def.Description, _ = flags.GetString("description")
	}
	if flags.Changed("default") {
		raw, _ := flags.GetString("default")
		v, err := parseDefault(def.Type, raw)
		if err != nil {
			return def, err
		}
		def.Default = v
	}
	return def, def.Check()
}

// parseDefault converts a flag value into the Go value stored for type t.
func parseDefault(t core.ValueType, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	switch t {
	case core.TypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: default %q is not a boolean", core.ErrInvalidField, raw)
		}
		return b, nil
	case core.TypeNumber:
		if i, err := strconv.Atoi(raw); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: default %q is not a number", core.ErrInvalidField, raw)
		}
		return f, nil
	case core.TypeList:
		var items []string
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		return items, nil
	}
	return raw, nil
}
