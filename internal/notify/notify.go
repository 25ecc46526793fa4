// Package notify carries user-facing toasts from the core to whatever front-end
// is attached. Every error category ends up here; nothing in the core prints.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is one toast.
type Notification struct {
	Title       string
	Description string
	Variant     Variant
}

// Info builds a default-variant notification.
func Info(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: VariantDefault}
}

// Error builds a destructive notification.
func Error(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: VariantDestructive}
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier routes notifications to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) {
	level := slog.LevelInfo
	if n.Variant == VariantDestructive {
		level = slog.LevelWarn
	}
	l.Logger.Log(ctx, level, "notification",
		slog.String("title", n.Title),
		slog.String("description", n.Description),
	)
}

// Writer prints notifications as single lines, e.g. to a terminal.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Notify(_ context.Context, n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()

	prefix := "•"
	if n.Variant == VariantDestructive {
		prefix = "!"
	}
	if n.Description == "" {
		fmt.Fprintf(w.out, "%s %s\n", prefix, n.Title)
		return
	}
	fmt.Fprintf(w.out, "%s %s: %s\n", prefix, n.Title, n.Description)
}

// Recorder keeps every notification in memory. Used by tests.
type Recorder struct {
	mu   sync.Mutex
	seen []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.seen...)
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return Notification{}, false
	}
	return r.seen[len(r.seen)-1], true
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, target := range m {
		target.Notify(ctx, n)
	}
}
