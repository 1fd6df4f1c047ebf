// Package config persists the pipeline settings and the custom schema fields.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/fenced/pkg/core"
)

const (
	// DefaultSystemDir is the hidden directory holding settings and the sweep index.
	DefaultSystemDir = ".fenced"
	// FileName is the settings file inside the system directory.
	FileName = "config.json"

	DefaultDebounce = 500 * time.Millisecond
	DefaultStatus   = "todo"
	DefaultPriority = "medium"
)

// Settings is the persisted configuration.
type Settings struct {
	DebounceMS      int                    `json:"debounce_ms"`
	AutoPopulate    bool                   `json:"auto_populate"`
	Validate        bool                   `json:"validate"`
	DefaultStatus   string                 `json:"default_status"`
	DefaultPriority string                 `json:"default_priority,omitempty"`
	Include         []string               `json:"include,omitempty"`
	Ignore          []string               `json:"ignore,omitempty"`
	Versioning      bool                   `json:"versioning,omitempty"`
	CustomFields    []core.FieldDefinition `json:"custom_fields"`
}

// Store loads and saves Settings.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// Defaults returns the settings used when nothing is persisted yet.
func Defaults() Settings {
	return Settings{
		DebounceMS:      int(DefaultDebounce / time.Millisecond),
		AutoPopulate:    true,
		Validate:        true,
		DefaultStatus:   DefaultStatus,
		DefaultPriority: DefaultPriority,
		Include:         []string{"**/*.md"},
		CustomFields: []core.FieldDefinition{
			{
				Key:           core.KeyPriority,
				DisplayName:   "Priority",
				Type:          core.TypeEnum,
				AllowedValues: []string{"low", "medium", "high"},
				Default:       DefaultPriority,
			},
		},
	}
}

// Debounce returns the debounce delay as a duration.
func (s Settings) Debounce() time.Duration {
	if s.DebounceMS <= 0 {
		return 0
	}
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// Check validates the settings before they are used. Defaults that would be
// written into every document must be values the schema accepts.
func (s Settings) Check() error {
	if s.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must not be negative")
	}
	if s.DefaultStatus == "" {
		return fmt.Errorf("default_status is required")
	}
	if !slices.Contains(core.StatusValues, s.DefaultStatus) {
		return fmt.Errorf("%w: default_status %q is not one of %v", core.ErrInvalidField, s.DefaultStatus, core.StatusValues)
	}
	for i, f := range s.CustomFields {
		if err := f.Check(); err != nil {
			return fmt.Errorf("custom_fields[%d]: %w", i, err)
		}
		if f.Key == core.KeyPriority && f.Type == core.TypeEnum && s.DefaultPriority != "" && !f.Allows(s.DefaultPriority) {
			return fmt.Errorf("%w: default_priority %q is not one of %v", core.ErrInvalidField, s.DefaultPriority, f.AllowedValues)
		}
	}
	return nil
}

// Clone returns a deep copy, so callers can mutate the field list safely.
func (s Settings) Clone() Settings {
	c := s
	c.Include = append([]string(nil), s.Include...)
	c.Ignore = append([]string(nil), s.Ignore...)
	c.CustomFields = make([]core.FieldDefinition, len(s.CustomFields))
	for i, f := range s.CustomFields {
		f.AllowedValues = append([]string(nil), f.AllowedValues...)
		c.CustomFields[i] = f
	}
	return c
}
