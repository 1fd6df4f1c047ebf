package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fenced/pkg/core"
)

func TestFileStore_MissingFileYieldsDefaults(t *testing.T) {
	store := NewFileStore(t.TempDir(), "")

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, DefaultDebounce, cfg.Debounce())
}

func TestFileStore_AcceptsComments(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, ".fenced")
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path), 0o755))

	data := []byte(`{
	// faster feedback while editing
	"debounce_ms": 150,
	"auto_populate": false,
	"default_status": "in-progress",
	"custom_fields": [
		{"key": "owner", "type": "text", "required": true},
		{"key": "estimate", "type": "number", "default": 1,},
	],
}`)
	require.NoError(t, os.WriteFile(store.Path, data, 0o644))

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.DebounceMS)
	assert.False(t, cfg.AutoPopulate)
	assert.True(t, cfg.Validate, "omitted keys keep their default")
	assert.Equal(t, "in-progress", cfg.DefaultStatus)
	require.Len(t, cfg.CustomFields, 2)
	assert.Equal(t, "owner", cfg.CustomFields[0].Key)
	assert.True(t, cfg.CustomFields[0].Required)
	assert.Empty(t, cfg.CustomFields[0].AllowedValues, "no leftovers from the seeded priority field")
	assert.Equal(t, 1.0, cfg.CustomFields[1].Default)
}

func TestFileStore_RejectsInvalidFields(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, "")
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path), 0o755))
	require.NoError(t, os.WriteFile(store.Path, []byte(`{"default_status":"todo","custom_fields":[{"key":"size","type":"enum"}]}`), 0o644))

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errConfigInvalid))
	assert.True(t, errors.Is(err, core.ErrInvalidField))
}

func TestFileStore_RejectsUnknownDefaults(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"status typo", `{"default_status":"tod0"}`},
		{"priority typo", `{"default_status":"todo","default_priority":"urgent"}`},
		{"priority outside custom values", `{"default_status":"todo","default_priority":"medium","custom_fields":[{"key":"priority","type":"enum","allowed_values":["p1","p2"]}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := NewFileStore(t.TempDir(), "")
			require.NoError(t, os.MkdirAll(filepath.Dir(store.Path), 0o755))
			require.NoError(t, os.WriteFile(store.Path, []byte(tc.data), 0o644))

			_, err := store.Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errConfigInvalid))
			assert.True(t, errors.Is(err, core.ErrInvalidField))
		})
	}

	t.Run("Priority Without Enum Field", func(t *testing.T) {
		cfg := Defaults()
		cfg.CustomFields = nil
		cfg.DefaultPriority = "whatever"
		assert.NoError(t, cfg.Check())
	})
}

func TestSettings_ValidateFlagIsAField(t *testing.T) {
	cfg := Defaults()
	assert.True(t, cfg.Validate)
	require.NoError(t, cfg.Check())

	cfg.Validate = false
	assert.False(t, cfg.Clone().Validate)
}

func TestFileStore_SaveRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir(), "")

	cfg := Defaults()
	cfg.DebounceMS = 42
	cfg.CustomFields = append(cfg.CustomFields, core.FieldDefinition{Key: "owner", Type: core.TypeText})
	require.NoError(t, store.Save(cfg))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.DebounceMS)
	require.Len(t, loaded.CustomFields, 2)
	assert.Equal(t, "owner", loaded.CustomFields[1].Key)
	assert.Equal(t, "medium", loaded.CustomFields[0].Default)
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	store := NewMemoryStore(Defaults())

	cfg, err := store.Load()
	require.NoError(t, err)
	cfg.CustomFields[0].AllowedValues[0] = "mutated"

	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "low", again.CustomFields[0].AllowedValues[0])

	store.FailSave = errors.New("disk full")
	assert.Error(t, store.Save(cfg))
	assert.Equal(t, 0, store.Saves())
}
