// Package notify provides Notifier sinks.
package notify

import (
	"log/slog"
	"sync"

	"github.com/aretw0/fenced/pkg/core"
)

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger discards everything.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ShowError(doc string, messages []string) {
	n.logger.Error("validation failed", "doc", doc, "errors", messages)
}

func (n *LogNotifier) ShowWarning(doc string, messages []string) {
	n.logger.Warn("validation warnings", "doc", doc, "warnings", messages)
}

func (n *LogNotifier) ShowInfo(message string) {
	n.logger.Info(message)
}

// Notification is one call recorded by a Recorder.
type Notification struct {
	Level    string // "error", "warning" or "info"
	Doc      string
	Messages []string
}

// Recorder keeps every notification in memory. It backs the batch CLI
// commands, which render a report after the run, and tests.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) ShowError(doc string, messages []string) {
	r.add(Notification{Level: "error", Doc: doc, Messages: append([]string(nil), messages...)})
}

func (r *Recorder) ShowWarning(doc string, messages []string) {
	r.add(Notification{Level: "warning", Doc: doc, Messages: append([]string(nil), messages...)})
}

func (r *Recorder) ShowInfo(message string) {
	r.add(Notification{Level: "info", Messages: []string{message}})
}

func (r *Recorder) add(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

// Multi fans notifications out to several sinks.
type Multi []core.Notifier

func (m Multi) ShowError(doc string, messages []string) {
	for _, n := range m {
		n.ShowError(doc, messages)
	}
}

func (m Multi) ShowWarning(doc string, messages []string) {
	for _, n := range m {
		n.ShowWarning(doc, messages)
	}
}

func (m Multi) ShowInfo(message string) {
	for _, n := range m {
		n.ShowInfo(message)
	}
}

var (
	_ core.Notifier = (*LogNotifier)(nil)
	_ core.Notifier = (*Recorder)(nil)
	_ core.Notifier = Multi(nil)
)
