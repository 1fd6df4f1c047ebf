package validate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fenced/pkg/config"
	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/dates"
	"github.com/aretw0/fenced/pkg/schema"
	"github.com/aretw0/fenced/pkg/validate"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }

func newSchema(t *testing.T, extra ...core.FieldDefinition) *schema.Registry {
	t.Helper()
	cfg := config.Defaults()
	cfg.CustomFields = append(cfg.CustomFields, extra...)
	reg, err := schema.NewRegistry(config.NewMemoryStore(cfg))
	require.NoError(t, err)
	return reg
}

func TestValidate_DoneWithoutCompletion(t *testing.T) {
	res := validate.NewValidator(fixedNow).Validate(
		core.RecordFrom("task", true, "status", "done"),
		newSchema(t),
	)

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, core.KeyCompleted, res.Warnings[0].Field)
	assert.NoError(t, res.Err())
}

func TestValidate_EnumOutsideAllowedValues(t *testing.T) {
	res := validate.NewValidator(fixedNow).Validate(
		core.RecordFrom("task", true, "status", "todo", "priority", "urgent"),
		newSchema(t),
	)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "priority", res.Errors[0].Field)
	assert.Equal(t, "must be one of: low, medium, high", res.Errors[0].Message)
	assert.Equal(t, validate.SeverityError, res.Errors[0].Severity)

	var verrs *validate.Errors
	require.True(t, errors.As(res.Err(), &verrs))
	assert.Len(t, verrs.ForField("priority"), 1)
	assert.Equal(t, "priority: must be one of: low, medium, high", res.Err().Error())
}

func TestValidate_GateSkipsUnmanagedRecords(t *testing.T) {
	v := validate.NewValidator(fixedNow)
	reg := newSchema(t)

	for _, rec := range []*core.Record{
		core.RecordFrom("title", "notes", "priority", "urgent"),
		core.RecordFrom("task", false, "priority", "urgent"),
		core.RecordFrom("task", "yes", "status", 42),
		core.NewRecord(),
	} {
		res := v.Validate(rec, reg)
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
		assert.Empty(t, res.Warnings)
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	reg := newSchema(t, core.FieldDefinition{Key: "owner", Type: core.TypeText, Required: true})
	v := validate.NewValidator(fixedNow)

	tests := []struct {
		name  string
		value any
		fails bool
	}{
		{"absent", nil, true},
		{"blank string", "   ", true},
		{"empty list", []string{}, true},
		{"present", "sam", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := core.RecordFrom("task", true, "status", "todo")
			if tc.value != nil {
				rec.Set("owner", tc.value)
			}
			res := v.Validate(rec, reg)
			if !tc.fails {
				assert.True(t, res.Valid)
				return
			}
			require.Len(t, res.Errors, 1)
			assert.Equal(t, validate.Issue{Field: "owner", Message: validate.MsgRequired, Severity: validate.SeverityError}, res.Errors[0])
		})
	}
}

func TestValidate_TypeChecks(t *testing.T) {
	reg := newSchema(t,
		core.FieldDefinition{Key: "billable", Type: core.TypeBoolean},
		core.FieldDefinition{Key: "estimate", Type: core.TypeNumber},
		core.FieldDefinition{Key: "tags", Type: core.TypeList},
		core.FieldDefinition{Key: "owner", Type: core.TypeText},
	)
	v := validate.NewValidator(fixedNow)

	tests := []struct {
		key   string
		value any
		want  string
	}{
		{"billable", true, ""},
		{"billable", "yes", "expected boolean"},
		{"estimate", 3, ""},
		{"estimate", "2.5", ""},
		{"estimate", "lots", "expected number"},
		{"tags", []string{"a"}, ""},
		{"tags", []any{"a", 1}, ""},
		{"tags", "a, b", "expected list"},
		{"owner", 12, "expected text"},
		{"created", dates.Date("2024-03-01"), ""},
		{"created", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), ""},
		{"created", "2024-03-01", ""},
		{"created", "March 1st", "expected date"},
		{"created", "2024-02-30", "expected date"},
		{"status", "blocked", "must be one of: todo, in-progress, done, cancelled"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			rec := core.RecordFrom("task", true, "status", "todo")
			rec.Set(tc.key, tc.value)

			res := v.Validate(rec, reg)
			if tc.want == "" {
				assert.True(t, res.Valid, "%v", res.Errors)
				return
			}
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tc.key, res.Errors[0].Field)
			assert.Equal(t, tc.want, res.Errors[0].Message)
		})
	}
}

func TestValidate_CrossFieldWarnings(t *testing.T) {
	v := validate.NewValidator(fixedNow)
	reg := newSchema(t)

	tests := []struct {
		name   string
		rec    *core.Record
		fields []string
	}{
		{
			name:   "completed while open",
			rec:    core.RecordFrom("task", true, "status", "in-progress", "completed", dates.Date("2024-03-10")),
			fields: []string{"completed"},
		},
		{
			name:   "overdue",
			rec:    core.RecordFrom("task", true, "status", "todo", "due", dates.Date("2024-03-14")),
			fields: []string{"due"},
		},
		{
			name: "due today is not overdue",
			rec:  core.RecordFrom("task", true, "status", "todo", "due", dates.Date("2024-03-15")),
		},
		{
			name: "done and complete",
			rec:  core.RecordFrom("task", true, "status", "done", "completed", dates.Date("2024-03-10"), "due", dates.Date("2024-01-01")),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(tc.rec, reg)
			assert.True(t, res.Valid, "warnings never invalidate")

			var got []string
			for _, w := range res.Warnings {
				got = append(got, w.Field)
			}
			assert.Equal(t, tc.fields, got)
		})
	}
}

func TestValidate_SeesRegistryMutations(t *testing.T) {
	reg := newSchema(t)
	v := validate.NewValidator(fixedNow)
	rec := core.RecordFrom("task", true, "status", "todo")

	require.True(t, v.Validate(rec, reg).Valid)

	require.NoError(t, reg.AddCustomField(core.FieldDefinition{Key: "owner", Type: core.TypeText, Required: true}))
	assert.False(t, v.Validate(rec, reg).Valid)

	require.NoError(t, reg.RemoveCustomField("owner"))
	assert.True(t, v.Validate(rec, reg).Valid)
}
