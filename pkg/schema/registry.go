// Package schema holds the field definitions metadata regions are checked against:
// a fixed set of built-in fields plus a persisted, runtime-editable custom list.
package schema

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/fenced/pkg/config"
	"github.com/aretw0/fenced/pkg/core"
)

// StatusValues are the allowed values of the built-in status field.
var StatusValues = core.StatusValues

var coreFields = []core.FieldDefinition{
	{Key: core.KeyApplies, DisplayName: "Task", Type: core.TypeBoolean, Required: true,
		Description: "Marks the document as managed; nothing else is touched without it."},
	{Key: core.KeyTitle, DisplayName: "Title", Type: core.TypeText},
	{Key: core.KeyCreated, DisplayName: "Created", Type: core.TypeDate},
	{Key: core.KeyStatus, DisplayName: "Status", Type: core.TypeEnum, Required: true, AllowedValues: StatusValues},
	{Key: core.KeyCompleted, DisplayName: "Completed", Type: core.TypeDate},
	{Key: core.KeyDue, DisplayName: "Due", Type: core.TypeDate},
}

// Registry serves the effective schema. Mutations of the custom list are
// persisted through the config store before they return.
type Registry struct {
	mu     sync.RWMutex
	store  config.Store
	custom []core.FieldDefinition
}

// NewRegistry loads the custom fields from store.
func NewRegistry(store config.Store) (*Registry, error) {
	cfg, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	r := &Registry{store: store}
	for _, def := range cfg.CustomFields {
		if err := r.checkNew(def, ""); err != nil {
			return nil, fmt.Errorf("load schema: %w", err)
		}
		r.custom = append(r.custom, cloneField(def))
	}
	return r, nil
}

// CoreFields returns the built-in fields.
func (r *Registry) CoreFields() []core.FieldDefinition {
	return cloneFields(coreFields)
}

// CustomFields returns the custom fields in insertion order.
func (r *Registry) CustomFields() []core.FieldDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneFields(r.custom)
}

// EffectiveFields returns core fields followed by custom fields.
// Validation and defaulting iterate in this order.
func (r *Registry) EffectiveFields() []core.FieldDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := cloneFields(coreFields)
	return append(out, cloneFields(r.custom)...)
}

// RequiredFieldKeys returns the keys of every required field, core first.
func (r *Registry) RequiredFieldKeys() []string {
	var keys []string
	for _, f := range r.EffectiveFields() {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Field looks up a definition by key.
func (r *Registry) Field(key string) (core.FieldDefinition, bool) {
	for _, f := range r.EffectiveFields() {
		if f.Key == key {
			return f, true
		}
	}
	return core.FieldDefinition{}, false
}

// IsCoreKey reports whether key belongs to a built-in field.
func IsCoreKey(key string) bool {
	return slices.ContainsFunc(coreFields, func(f core.FieldDefinition) bool { return f.Key == key })
}

// AddCustomField appends def to the custom list.
func (r *Registry) AddCustomField(def core.FieldDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkNew(def, ""); err != nil {
		return err
	}
	next := append(cloneFields(r.custom), cloneField(def))
	return r.commit(next)
}

// UpdateCustomField replaces the definition stored under key, in place.
// def may rename the field as long as the new key is free.
func (r *Registry) UpdateCustomField(key string, def core.FieldDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(key)
	if idx < 0 {
		if IsCoreKey(key) {
			return &core.DuplicateKeyError{Key: key, Core: true}
		}
		return fmt.Errorf("%w: %s", core.ErrFieldNotFound, key)
	}
	if err := r.checkNew(def, key); err != nil {
		return err
	}
	next := cloneFields(r.custom)
	next[idx] = cloneField(def)
	return r.commit(next)
}

// RemoveCustomField drops the field stored under key. Unknown keys are a no-op.
func (r *Registry) RemoveCustomField(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(key)
	if idx < 0 {
		return nil
	}
	next := cloneFields(r.custom)
	next = append(next[:idx], next[idx+1:]...)
	return r.commit(next)
}

// checkNew validates def and its key against the current fields.
// except names a custom key that may be reused (the field being updated).
func (r *Registry) checkNew(def core.FieldDefinition, except string) error {
	if err := def.Check(); err != nil {
		return err
	}
	if IsCoreKey(def.Key) {
		return &core.DuplicateKeyError{Key: def.Key, Core: true}
	}
	if def.Key != except && r.indexOf(def.Key) >= 0 {
		return &core.DuplicateKeyError{Key: def.Key}
	}
	return nil
}

// commit persists next and only then makes it effective.
func (r *Registry) commit(next []core.FieldDefinition) error {
	cfg, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("persist schema: %w", err)
	}
	cfg.CustomFields = next
	if err := r.store.Save(cfg); err != nil {
		return fmt.Errorf("persist schema: %w", err)
	}
	r.custom = next
	return nil
}

func (r *Registry) indexOf(key string) int {
	return slices.IndexFunc(r.custom, func(f core.FieldDefinition) bool { return f.Key == key })
}

func cloneField(f core.FieldDefinition) core.FieldDefinition {
	f.AllowedValues = slices.Clone(f.AllowedValues)
	return f
}

func cloneFields(in []core.FieldDefinition) []core.FieldDefinition {
	out := make([]core.FieldDefinition, len(in))
	for i, f := range in {
		out[i] = cloneField(f)
	}
	return out
}
