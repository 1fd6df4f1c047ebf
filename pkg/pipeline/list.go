package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/region"
	"github.com/aretw0/fenced/pkg/validate"
)

// ListCheck checks that a fenced list region parses into items. It never
// writes; reordering is an explicit command.
type ListCheck struct {
	store    core.DocumentStore
	markers  region.Markers
	notifier core.Notifier
	logger   *slog.Logger
}

// NewListCheck creates a check for ```kind fenced lists.
func NewListCheck(store core.DocumentStore, kind string, notifier core.Notifier, logger *slog.Logger) *ListCheck {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ListCheck{store: store, markers: region.FencedList(kind), notifier: notifier, logger: logger}
}

// Name implements Runner.
func (l *ListCheck) Name() string {
	return l.markers.Name
}

// Run implements Runner.
func (l *ListCheck) Run(ctx context.Context, path string, stale func() bool) (Result, error) {
	res := Result{RunID: uuid.NewString(), Path: path}
	text, err := l.store.Read(ctx, path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}

	r := region.Locate(text, l.markers)
	if r == nil {
		return skip(res, ReasonNoRegion), nil
	}

	items, err := region.ParseList(r)
	if stale != nil && stale() {
		return skip(res, ReasonSuperseded), nil
	}

	vr := validate.Result{Valid: err == nil}
	if err != nil {
		vr.Errors = []validate.Issue{{Field: l.Name(), Message: err.Error(), Severity: validate.SeverityError}}
		l.notifier.ShowError(path, vr.ErrorMessages())
	}
	res.Validation = &vr
	l.logger.Debug("list checked", "run", res.RunID, "doc", path, "region", l.Name(), "items", len(items), "valid", vr.Valid)
	return res, nil
}

var _ Runner = (*ListCheck)(nil)
