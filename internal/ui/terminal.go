package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether stdout gets ANSI colors.
func ShouldUseColor() bool {
	return colorEnabled(os.Getenv, term.IsTerminal(int(os.Stdout.Fd())))
}

// colorEnabled decides color from the environment. SCOUT_COLOR=always|never
// wins outright; otherwise NO_COLOR, CLICOLOR_FORCE and CLICOLOR are
// honored in that order and a terminal gets color by default.
func colorEnabled(getenv func(string) string, tty bool) bool {
	switch strings.ToLower(strings.TrimSpace(getenv("SCOUT_COLOR"))) {
	case "always":
		return true
	case "never":
		return false
	}
	// https://no-color.org: any non-empty value disables color.
	if getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(getenv("CLICOLOR")) == "0" {
		return false
	}
	return tty
}
