package ui

import "fmt"

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent  = 74  // blue
	colorCommand = 180 // tan
	colorMuted   = 245 // medium gray
	colorSuccess = 114 // green
	colorWarn    = 179 // amber
	colorError   = 203 // red
)

var noColor bool

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderCommand returns s in the command-name color used by help output.
func RenderCommand(s string) string { return render(colorCommand, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderSuccess returns s in green.
func RenderSuccess(s string) string { return render(colorSuccess, s) }

// RenderWarn returns s in amber.
func RenderWarn(s string) string { return render(colorWarn, s) }

// RenderError returns s in red.
func RenderError(s string) string { return render(colorError, s) }

// RenderOutcome colors an upsert outcome: created and applied succeed,
// stale warns.
func RenderOutcome(outcome string) string {
	switch outcome {
	case "created", "applied":
		return RenderSuccess(outcome)
	case "stale":
		return RenderWarn(outcome)
	}
	return outcome
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// Configure disables color unless ShouldUseColor allows it.
func Configure() {
	if !ShouldUseColor() {
		ForceNoColor()
	}
}
