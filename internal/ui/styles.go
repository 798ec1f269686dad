// Package ui holds terminal color helpers for the tg CLI.
package ui

import (
	"fmt"

	"github.com/quarryhill/taskgraph/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorMuted  = 245 // medium gray
	colorGreen  = 114
	colorYellow = 180
	colorRed    = 167
)

var noColor bool

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	return render(colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return render(colorMuted, s)
}

// RenderStatus colors a task status: done green, in_progress yellow,
// todo accent, backlog muted.
func RenderStatus(status model.Status) string {
	s := string(status)
	switch status {
	case model.StatusDone:
		return render(colorGreen, s)
	case model.StatusInProgress:
		return render(colorYellow, s)
	case model.StatusTodo:
		return render(colorAccent, s)
	default:
		return render(colorMuted, s)
	}
}

// RenderSeverity colors a conflict severity: high red, medium yellow,
// low muted.
func RenderSeverity(sev model.Severity) string {
	s := string(sev)
	switch sev {
	case model.SeverityHigh:
		return render(colorRed, s)
	case model.SeverityMedium:
		return render(colorYellow, s)
	default:
		return render(colorMuted, s)
	}
}
