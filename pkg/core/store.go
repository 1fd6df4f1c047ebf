package core

import "context"

// DocumentStore is the host's document storage.
// Paths are slash-separated and relative to the store root.
type DocumentStore interface {
	// Read returns the full text of a document.
	Read(ctx context.Context, path string) (string, error)

	// Modify replaces the full text of a document. It is all-or-nothing.
	Modify(ctx context.Context, path, text string) error
}

// Watchable is implemented by stores that emit change notifications.
type Watchable interface {
	// Watch streams created/modified events until ctx is cancelled.
	Watch(ctx context.Context) (<-chan Event, error)
}

// Notifier is the user-facing notification sink. Rendering is up to the host.
type Notifier interface {
	ShowError(doc string, messages []string)
	ShowWarning(doc string, messages []string)
	ShowInfo(message string)
}

type contextKey string

// ChangeReasonKey carries the commit message for a versioned Modify.
const ChangeReasonKey contextKey = "change_reason"

// WithChangeReason returns a context whose writes are recorded with reason.
func WithChangeReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, ChangeReasonKey, reason)
}

// ChangeReason returns the reason attached to ctx, if any.
func ChangeReason(ctx context.Context) (string, bool) {
	reason, ok := ctx.Value(ChangeReasonKey).(string)
	return reason, ok && reason != ""
}
