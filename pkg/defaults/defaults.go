// Package defaults computes the corrected version of a record: missing
// values filled in from the schema and every date normalized.
package defaults

import (
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/dates"
	"github.com/aretw0/fenced/pkg/region"
)

// Schema is the part of the registry the assigner reads.
type Schema interface {
	EffectiveFields() []core.FieldDefinition
	CustomFields() []core.FieldDefinition
	RequiredFieldKeys() []string
}

// Assigner fills missing values. It never mutates its input.
type Assigner struct {
	now             func() time.Time
	defaultStatus   string
	defaultPriority string
}

// NewAssigner creates an Assigner. A nil clock means time.Now.
func NewAssigner(now func() time.Time, defaultStatus, defaultPriority string) *Assigner {
	if now == nil {
		now = time.Now
	}
	return &Assigner{now: now, defaultStatus: defaultStatus, defaultPriority: defaultPriority}
}

// Assign returns a corrected copy of rec. docName is the document's file name
// or path, used to derive a missing title. Records that do not opt in are
// returned as an untouched copy.
func (a *Assigner) Assign(rec *core.Record, docName string, schema Schema) *core.Record {
	out := rec.Clone()
	if !region.IsApplicable(rec) {
		return out
	}

	if v, _ := out.Get(core.KeyTitle); core.IsEmpty(v) {
		if title := TitleFromName(docName); title != "" {
			out.Set(core.KeyTitle, title)
		}
	}

	// An existing creation date is history: normalize it below, never replace it.
	if v, _ := out.Get(core.KeyCreated); core.IsEmpty(v) {
		out.Set(core.KeyCreated, dates.Today(a.now))
	}

	if v, _ := out.Get(core.KeyStatus); core.IsEmpty(v) && a.defaultStatus != "" {
		out.Set(core.KeyStatus, a.defaultStatus)
	}

	for _, def := range schema.CustomFields() {
		if v, _ := out.Get(def.Key); !core.IsEmpty(v) {
			continue
		}
		switch {
		case def.HasDefault():
			out.Set(def.Key, defaultValue(def))
		case def.Key == core.KeyPriority && a.defaultPriority != "":
			out.Set(def.Key, a.defaultPriority)
		}
	}

	for _, def := range schema.EffectiveFields() {
		if def.Type != core.TypeDate {
			continue
		}
		v, ok := out.Get(def.Key)
		if !ok || core.IsEmpty(v) {
			continue
		}
		if d, ok := dates.Normalize(v); ok {
			out.Set(def.Key, d)
		}
	}
	return out
}

func defaultValue(def core.FieldDefinition) any {
	switch def.Type {
	case core.TypeDate:
		if d, ok := dates.Normalize(def.Default); ok {
			return d
		}
	case core.TypeList:
		if l, ok := core.AsStringList(def.Default); ok {
			return append([]string(nil), l...)
		}
	case core.TypeNumber:
		// JSON config decodes every number as float64; keep whole numbers integral.
		if f, ok := def.Default.(float64); ok && f == float64(int64(f)) {
			return int(f)
		}
	}
	return def.Default
}

// MissingRequiredFieldKeys lists the required keys rec lacks, in schema order.
func MissingRequiredFieldKeys(rec *core.Record, schema Schema) []string {
	var missing []string
	for _, key := range schema.RequiredFieldKeys() {
		if v, _ := rec.Get(key); core.IsEmpty(v) {
			missing = append(missing, key)
		}
	}
	return missing
}

// TitleFromName derives a title from a document name:
// "notes/fix-login-bug.md" becomes "fix login bug".
func TitleFromName(name string) string {
	base := path.Base(filepath.ToSlash(name))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}
