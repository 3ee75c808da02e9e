// Package notify surfaces user-visible notices (toasts). The request
// interceptor emits exactly one notice per classified failure; the auth
// service emits success notices for login, registration and logout.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Level represents the notice severity.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notice is one user-visible message.
type Notice struct {
	Level   Level  `json:"level"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// Notifier displays notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Success shows a success notice.
func Success(ctx context.Context, n Notifier, message string) {
	show(ctx, n, LevelSuccess, message)
}

// Error shows an error notice.
func Error(ctx context.Context, n Notifier, message string) {
	show(ctx, n, LevelError, message)
}

// Warning shows a warning notice.
func Warning(ctx context.Context, n Notifier, message string) {
	show(ctx, n, LevelWarning, message)
}

// Info shows an info notice.
func Info(ctx context.Context, n Notifier, message string) {
	show(ctx, n, LevelInfo, message)
}

// WithTitle shows a notice with a title and message.
func WithTitle(ctx context.Context, n Notifier, level Level, title, message string) {
	if n == nil {
		return
	}
	n.Notify(ctx, Notice{Level: level, Title: title, Message: message})
}

func show(ctx context.Context, n Notifier, level Level, message string) {
	if n == nil {
		return
	}
	n.Notify(ctx, Notice{Level: level, Message: message})
}

// Console writes notices as colored single lines, matching the CLI's
// success/warn/error prefixes.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewConsole writes to w; color toggles ANSI escapes.
func NewConsole(w io.Writer, color bool) *Console {
	return &Console{w: w, color: color}
}

func (c *Console) Notify(_ context.Context, n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := n.Message
	if n.Title != "" {
		text = n.Title + ": " + n.Message
	}
	_, _ = fmt.Fprintf(c.w, "%s %s\n", c.prefix(n.Level), text)
}

func (c *Console) prefix(level Level) string {
	var symbol, color string
	switch level {
	case LevelSuccess:
		symbol, color = "✓", "\033[32m"
	case LevelError:
		symbol, color = "✗", "\033[31m"
	case LevelWarning:
		symbol, color = "⚠", "\033[33m"
	default:
		symbol, color = "ℹ", "\033[36m"
	}
	if !c.color {
		return symbol
	}
	return color + symbol + "\033[0m"
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a snapshot of recorded notices in arrival order.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Count returns how many notices of the given level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, notice := range r.notices {
		if notice.Level == level {
			n++
		}
	}
	return n
}

// Last returns the most recent notice, if any.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// Reset drops recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(context.Context, Notice) {}
