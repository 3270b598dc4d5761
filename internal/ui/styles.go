package ui

import (
	"fmt"
	"strings"
)

// ANSI256 color codes for the tank CLI.
const (
	colorShark = 74  // blue
	colorDeal  = 71  // green
	colorOut   = 167 // red
	colorMuted = 245 // medium gray
)

var noColor bool

// RenderShark returns a shark name in the panel (blue) color.
func RenderShark(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorShark, s)
}

// RenderDeal returns s in the deal (green) color.
func RenderDeal(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorDeal, s)
}

// RenderOut returns s in the walked-out (red) color.
func RenderOut(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorOut, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// ConfidenceBar renders a 10-cell bar for a 0-100 confidence score.
func ConfidenceBar(confidence int) string {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	filled := confidence / 10
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
	switch {
	case confidence >= 60:
		return RenderDeal(bar)
	case confidence < 30:
		return RenderOut(bar)
	default:
		return bar
	}
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
