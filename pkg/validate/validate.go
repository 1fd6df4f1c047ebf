// Package validate checks a parsed record against the effective schema.
//
// Results are advisory: nothing here blocks a write. Errors describe missing
// or mistyped fields, warnings describe logically inconsistent combinations.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/dates"
	"github.com/aretw0/fenced/pkg/region"
)

// Severity grades an Issue.
type Severity string

const SeverityError Severity = "error"

const MsgRequired = "required field missing"

// Schema is the part of the registry the validator reads.
type Schema interface {
	EffectiveFields() []core.FieldDefinition
	RequiredFieldKeys() []string
}

// Issue is one hard validation failure.
type Issue struct {
	Field    string
	Message  string
	Severity Severity
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// Warning is a soft, cross-field finding.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Field, w.Message)
}

// Result is produced fresh by every Validate call.
type Result struct {
	Valid    bool
	Errors   []Issue
	Warnings []Warning
}

// Err folds the errors of r into an error value, nil when r is valid.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return &Errors{Issues: append([]Issue(nil), r.Errors...)}
}

// ErrorMessages renders each error as "field: message".
func (r Result) ErrorMessages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.String()
	}
	return out
}

// WarningMessages renders each warning as "field: message".
func (r Result) WarningMessages() []string {
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.String()
	}
	return out
}

// Validator applies a Schema to records. The clock decides what "overdue" means.
type Validator struct {
	now func() time.Time
}

// NewValidator creates a Validator. A nil clock means time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Validate checks rec. Records that do not opt in yield a valid, empty result.
func (v *Validator) Validate(rec *core.Record, schema Schema) Result {
	res := Result{Valid: true}
	if !region.IsApplicable(rec) {
		return res
	}

	missing := make(map[string]bool)
	for _, key := range schema.RequiredFieldKeys() {
		val, _ := rec.Get(key)
		if core.IsEmpty(val) {
			missing[key] = true
			res.Errors = append(res.Errors, Issue{Field: key, Message: MsgRequired, Severity: SeverityError})
		}
	}

	for _, def := range schema.EffectiveFields() {
		val, ok := rec.Get(def.Key)
		if !ok || missing[def.Key] || core.IsEmpty(val) {
			continue
		}
		if msg := checkType(def, val); msg != "" {
			res.Errors = append(res.Errors, Issue{Field: def.Key, Message: msg, Severity: SeverityError})
		}
	}

	res.Warnings = v.crossField(rec)
	res.Valid = len(res.Errors) == 0
	return res
}

// checkType returns the error message for a mismatch, "" when val fits def.
func checkType(def core.FieldDefinition, val any) string {
	switch def.Type {
	case core.TypeBoolean:
		if _, ok := val.(bool); ok {
			return ""
		}
	case core.TypeText:
		if _, ok := val.(string); ok {
			return ""
		}
	case core.TypeNumber:
		if _, ok := core.AsNumber(val); ok {
			return ""
		}
	case core.TypeDate:
		if _, ok := dates.Normalize(val); ok {
			return ""
		}
	case core.TypeList:
		switch val.(type) {
		case []string, []any:
			return ""
		}
	case core.TypeEnum:
		if s, ok := val.(string); ok && def.Allows(s) {
			return ""
		}
		return "must be one of: " + strings.Join(def.AllowedValues, ", ")
	}
	return "expected " + string(def.Type)
}

func (v *Validator) crossField(rec *core.Record) []Warning {
	var warnings []Warning

	status, _ := rec.String(core.KeyStatus)
	done := status == core.StatusDone

	completed, _ := rec.Get(core.KeyCompleted)
	switch {
	case !core.IsEmpty(completed) && !done:
		warnings = append(warnings, Warning{
			Field:   core.KeyCompleted,
			Message: fmt.Sprintf("set while status is %q, not %q", status, core.StatusDone),
		})
	case core.IsEmpty(completed) && done:
		warnings = append(warnings, Warning{
			Field:   core.KeyCompleted,
			Message: "status is done but no completion date is set",
		})
	}

	if due, ok := rec.Get(core.KeyDue); ok && !done {
		if d, ok := dates.Normalize(due); ok && dates.Before(d, dates.Today(v.now)) {
			warnings = append(warnings, Warning{
				Field:   core.KeyDue,
				Message: fmt.Sprintf("overdue since %s", d),
			})
		}
	}
	return warnings
}
