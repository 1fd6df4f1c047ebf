package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fenced/pkg/core"
)

func TestRecord_PreservesInsertionOrder(t *testing.T) {
	r := core.NewRecord()
	r.Set("b", 1)
	r.Set("a", 2)
	r.Set("c", 3)
	r.Set("a", 4) // replace keeps position

	assert.Equal(t, []string{"b", "a", "c"}, r.Keys())
	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 4, v)

	r.Delete("b")
	r.Delete("missing")
	assert.Equal(t, []string{"a", "c"}, r.Keys())
	assert.Equal(t, 2, r.Len())
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	r := core.RecordFrom("tags", []string{"x", "y"}, "meta", map[string]any{"k": "v"})
	c := r.Clone()
	require.True(t, r.Equal(c))

	tags, _ := c.Get("tags")
	tags.([]string)[0] = "changed"
	meta, _ := c.Get("meta")
	meta.(map[string]any)["k"] = "changed"

	orig, _ := r.Get("tags")
	assert.Equal(t, "x", orig.([]string)[0])
	origMeta, _ := r.Get("meta")
	assert.Equal(t, "v", origMeta.(map[string]any)["k"])
	assert.False(t, r.Equal(c))
}

func TestRecord_EqualIsOrderSensitive(t *testing.T) {
	a := core.RecordFrom("x", 1, "y", 2)
	b := core.RecordFrom("y", 2, "x", 1)
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a.Clone()))

	var nilRec *core.Record
	assert.True(t, nilRec.Equal(core.NewRecord()))
	assert.Equal(t, 0, nilRec.Len())
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"blank string", "  ", true},
		{"text", "x", false},
		{"empty list", []string{}, true},
		{"empty any list", []any{}, true},
		{"list", []string{"a"}, false},
		{"false", false, false},
		{"zero", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, core.IsEmpty(tc.value))
		})
	}
}

func TestFieldDefinition_Check(t *testing.T) {
	tests := []struct {
		name    string
		def     core.FieldDefinition
		wantErr bool
	}{
		{"text", core.FieldDefinition{Key: "owner", Type: core.TypeText}, false},
		{"empty key", core.FieldDefinition{Type: core.TypeText}, true},
		{"key with colon", core.FieldDefinition{Key: "a:b", Type: core.TypeText}, true},
		{"unknown type", core.FieldDefinition{Key: "x", Type: "color"}, true},
		{"enum without values", core.FieldDefinition{Key: "x", Type: core.TypeEnum}, true},
		{"enum default allowed", core.FieldDefinition{Key: "x", Type: core.TypeEnum, AllowedValues: []string{"a"}, Default: "a"}, false},
		{"enum default not allowed", core.FieldDefinition{Key: "x", Type: core.TypeEnum, AllowedValues: []string{"a"}, Default: "b"}, true},
		{"number default from json", core.FieldDefinition{Key: "n", Type: core.TypeNumber, Default: 3.0}, false},
		{"list default from json", core.FieldDefinition{Key: "l", Type: core.TypeList, Default: []any{"a"}}, false},
		{"boolean default mismatch", core.FieldDefinition{Key: "b", Type: core.TypeBoolean, Default: "yes"}, true},
		{"date default", core.FieldDefinition{Key: "review", Type: core.TypeDate, Default: "2024-12-31"}, false},
		{"date default not a date", core.FieldDefinition{Key: "review", Type: core.TypeDate, Default: "next week"}, true},
		{"date default impossible day", core.FieldDefinition{Key: "review", Type: core.TypeDate, Default: "2024-02-30"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Check()
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, core.ErrInvalidField))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAsNumber(t *testing.T) {
	n, ok := core.AsNumber(" 42 ")
	assert.True(t, ok)
	assert.Equal(t, 42.0, n)

	_, ok = core.AsNumber("NaN")
	assert.False(t, ok)
	_, ok = core.AsNumber("many")
	assert.False(t, ok)
	_, ok = core.AsNumber(true)
	assert.False(t, ok)
}
