// Package pipeline drives one document region through
// locate -> parse -> gate -> assign defaults -> write back, or validate -> notify.
//
// A run that writes stops there: the write produces a change event of its
// own, and the next run validates the populated region. Result.Wrote tells
// the two phases apart without needing the event round trip.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/defaults"
	"github.com/aretw0/fenced/pkg/git"
	"github.com/aretw0/fenced/pkg/region"
	"github.com/aretw0/fenced/pkg/validate"
)

// Reasons a run stopped without writing or validating.
const (
	ReasonNoRegion      = "no region"
	ReasonMalformed     = "malformed region"
	ReasonNotApplicable = "not applicable"
	ReasonSuperseded    = "superseded by a newer change"
	ReasonDisabled      = "auto-populate and validation disabled"
)

// Schema is what a run needs from the registry.
type Schema interface {
	CustomFields() []core.FieldDefinition
	EffectiveFields() []core.FieldDefinition
	RequiredFieldKeys() []string
}

// Result is the outcome of one run.
type Result struct {
	RunID string
	Path  string
	// Wrote is set when the populate phase persisted a corrected region.
	Wrote bool
	// Filled lists the keys the populate phase added or rewrote.
	Filled []string
	// Skipped is set when the document was left alone; Reason says why.
	Skipped bool
	Reason  string
	// Validation is set when the validate phase ran.
	Validation *validate.Result
}

// Config wires a Pipeline. Store, Schema, Assigner and Validator are required.
type Config struct {
	Store     core.DocumentStore
	Markers   region.Markers
	Codec     region.Codec
	Schema    Schema
	Assigner  *defaults.Assigner
	Validator *validate.Validator
	Notifier  core.Notifier
	Logger    *slog.Logger

	AutoPopulate bool
	Validate     bool
	// Versioned attaches a commit message to populate writes.
	Versioned bool
}

// Pipeline processes one region kind. It holds no per-document state and is
// safe for concurrent use on different documents.
type Pipeline struct {
	cfg Config
}

// New creates a Pipeline, filling in the frontmatter markers, the YAML codec
// and a discarding logger when they are not set.
func New(cfg Config) *Pipeline {
	if cfg.Markers.Start == "" {
		cfg.Markers = region.Frontmatter()
	}
	if cfg.Codec == nil {
		cfg.Codec = region.NewYAMLCodec()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	return &Pipeline{cfg: cfg}
}

// Name identifies the region kind this pipeline owns.
func (p *Pipeline) Name() string {
	return p.cfg.Markers.Name
}

// Run processes the document at path once. stale reports whether a newer
// change has superseded this run; a stale run discards its write and its
// notifications. A nil stale never expires.
//
// Errors are returned for failed reads and writes only. Malformed or
// unmanaged regions are a skipped Result with a nil error.
func (p *Pipeline) Run(ctx context.Context, path string, stale func() bool) (Result, error) {
	if stale == nil {
		stale = func() bool { return false }
	}
	res := Result{RunID: uuid.NewString(), Path: path}
	log := p.cfg.Logger.With("run", res.RunID, "doc", path, "region", p.Name())

	text, err := p.cfg.Store.Read(ctx, path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	if stale() {
		return skip(res, ReasonSuperseded), nil
	}

	r := region.Locate(text, p.cfg.Markers)
	if r == nil {
		log.Debug("no region")
		return skip(res, ReasonNoRegion), nil
	}

	rec, err := region.Parse(r, p.cfg.Codec)
	if err != nil {
		var perr *core.ParseError
		if !errors.As(err, &perr) {
			return res, err
		}
		log.Warn("soft parse failure, leaving document untouched", "error", err)
		return skip(res, ReasonMalformed), nil
	}
	if !region.IsApplicable(rec) {
		log.Debug("not applicable")
		return skip(res, ReasonNotApplicable), nil
	}

	if p.cfg.AutoPopulate {
		wrote, err := p.populate(ctx, log, text, rec, stale, &res)
		if err != nil || wrote || res.Skipped {
			return res, err
		}
	}

	if !p.cfg.Validate {
		if !p.cfg.AutoPopulate {
			return skip(res, ReasonDisabled), nil
		}
		return res, nil
	}

	vr := p.cfg.Validator.Validate(rec, p.cfg.Schema)
	if stale() {
		return skip(res, ReasonSuperseded), nil
	}
	res.Validation = &vr

	if len(vr.Errors) > 0 {
		p.cfg.Notifier.ShowError(path, vr.ErrorMessages())
	}
	if len(vr.Warnings) > 0 {
		p.cfg.Notifier.ShowWarning(path, vr.WarningMessages())
	}
	log.Debug("validated", "valid", vr.Valid, "errors", len(vr.Errors), "warnings", len(vr.Warnings))
	return res, nil
}

// populate writes the corrected region when it differs from the parsed one.
func (p *Pipeline) populate(ctx context.Context, log *slog.Logger, text string, rec *core.Record, stale func() bool, res *Result) (bool, error) {
	fixed := p.cfg.Assigner.Assign(rec, res.Path, p.cfg.Schema)
	if fixed.Equal(rec) {
		return false, nil
	}

	out, err := region.WriteBack(text, p.cfg.Markers, p.cfg.Codec, fixed)
	if err != nil {
		return false, fmt.Errorf("write back %s: %w", res.Path, err)
	}
	if out == text {
		return false, nil
	}
	if stale() {
		*res = skip(*res, ReasonSuperseded)
		return false, nil
	}

	filled := changedKeys(rec, fixed)
	if p.cfg.Versioned {
		ctx = core.WithChangeReason(ctx, git.PopulateMessage(res.Path, filled))
	}
	if err := p.cfg.Store.Modify(ctx, res.Path, out); err != nil {
		perr := &core.PersistenceError{Path: res.Path, Err: err}
		log.Error("auto-populate write failed", "error", err)
		p.cfg.Notifier.ShowError(res.Path, []string{perr.Error()})
		return false, perr
	}

	res.Wrote = true
	res.Filled = filled
	log.Info("populated defaults", "fields", filled)
	return true, nil
}

func skip(res Result, reason string) Result {
	res.Skipped = true
	res.Reason = reason
	return res
}

// changedKeys lists, in record order, the keys of after that are new or whose
// value differs from before.
func changedKeys(before, after *core.Record) []string {
	var keys []string
	for _, k := range after.Keys() {
		old, ok := before.Get(k)
		cur, _ := after.Get(k)
		if !ok || !reflect.DeepEqual(old, cur) {
			keys = append(keys, k)
		}
	}
	return keys
}

type nopNotifier struct{}

func (nopNotifier) ShowError(string, []string)   {}
func (nopNotifier) ShowWarning(string, []string) {}
func (nopNotifier) ShowInfo(string)              {}
