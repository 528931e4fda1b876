// Package redirect orchestrates the backend launch and drives the host window
// to the backend, or to a fallback page when the backend does not come up.
package redirect

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// guardedWindow forwards only the first command.
type guardedWindow struct {
	w    Window
	done atomic.Bool
}

func (g *guardedWindow) issued() bool {
	return g.done.Load()
}

func (g *guardedWindow) redirect(ctx context.Context, url string) bool {
	if !g.done.CompareAndSwap(false, true) {
		slog.WarnContext(ctx, "window command already issued, dropping redirect", "url", url)
		return false
	}
	if err := g.w.Redirect(url); err != nil {
		slog.ErrorContext(ctx, "redirecting window", "url", url, "error", err)
	}
	return true
}

func (g *guardedWindow) showFallback(ctx context.Context, message string) bool {
	if !g.done.CompareAndSwap(false, true) {
		slog.WarnContext(ctx, "window command already issued, dropping fallback")
		return false
	}
	if err := g.w.ShowFallback(message); err != nil {
		slog.ErrorContext(ctx, "showing fallback", "error", err)
	}
	return true
}

// FallbackMessage is the text shown when the backend does not come up.
func FallbackMessage(logPath string) string {
	msg := "The TodoErr server did not start.\nPlease restart the application."
	if logPath != "" {
		msg += "\nDetails are in the log file: " + logPath
	}
	return msg
}
