package core

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/fenced/pkg/dates"
)

// ValueType is the declared type of a schema field.
type ValueType string

const (
	TypeBoolean ValueType = "boolean"
	TypeText    ValueType = "text"
	TypeNumber  ValueType = "number"
	TypeDate    ValueType = "date"
	TypeList    ValueType = "list"
	TypeEnum    ValueType = "enum"
)

// Valid reports whether t is one of the known value types.
func (t ValueType) Valid() bool {
	switch t {
	case TypeBoolean, TypeText, TypeNumber, TypeDate, TypeList, TypeEnum:
		return true
	}
	return false
}

// FieldDefinition describes one schema field.
type FieldDefinition struct {
	Key           string    `json:"key"`
	DisplayName   string    `json:"display_name,omitempty"`
	Type          ValueType `json:"type"`
	Required      bool      `json:"required,omitempty"`
	Default       any       `json:"default,omitempty"`
	AllowedValues []string  `json:"allowed_values,omitempty"`
	Description   string    `json:"description,omitempty"`
}

// Label returns the display name, falling back to the key.
func (d FieldDefinition) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Key
}

// HasDefault reports whether the definition carries a usable default value.
func (d FieldDefinition) HasDefault() bool {
	return !IsEmpty(d.Default)
}

// Allows reports whether value is one of the enum's allowed values.
func (d FieldDefinition) Allows(value string) bool {
	return slices.Contains(d.AllowedValues, value)
}

// Check validates the shape of the definition itself.
func (d FieldDefinition) Check() error {
	if strings.TrimSpace(d.Key) == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidField)
	}
	if strings.ContainsAny(d.Key, ": \t\n") {
		return fmt.Errorf("%w: key %q contains whitespace or ':'", ErrInvalidField, d.Key)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: field %s has unknown type %q", ErrInvalidField, d.Key, d.Type)
	}
	if d.Type == TypeEnum && len(d.AllowedValues) == 0 {
		return fmt.Errorf("%w: enum field %s needs at least one allowed value", ErrInvalidField, d.Key)
	}
	if !d.HasDefault() {
		return nil
	}
	if !defaultMatches(d) {
		return fmt.Errorf("%w: default %v of field %s does not match type %s", ErrInvalidField, d.Default, d.Key, d.Type)
	}
	return nil
}

func defaultMatches(d FieldDefinition) bool {
	switch d.Type {
	case TypeBoolean:
		_, ok := d.Default.(bool)
		return ok
	case TypeText:
		_, ok := d.Default.(string)
		return ok
	case TypeNumber:
		_, ok := AsNumber(d.Default)
		return ok
	case TypeDate:
		_, ok := dates.Normalize(d.Default)
		return ok
	case TypeList:
		_, ok := AsStringList(d.Default)
		return ok
	case TypeEnum:
		s, ok := d.Default.(string)
		return ok && d.Allows(s)
	}
	return false
}

// AsNumber coerces v to a finite float64.
func AsNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AsStringList converts list-shaped values into []string.
// JSON-decoded defaults arrive as []any.
func AsStringList(v any) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
