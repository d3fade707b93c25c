package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alfredjeanlab/scout/internal/ui"
	"github.com/spf13/cobra"
)

// helpRule styles every match of re. When group is non-zero only that
// submatch is styled and the rest of the match is kept as is.
type helpRule struct {
	re     *regexp.Regexp
	group  int
	render func(string) string
}

// helpRules are applied in order to Cobra's plain help text.
var helpRules = []helpRule{
	// Group headers such as "Records:" or "Flags:".
	{regexp.MustCompile(`(?m)^[A-Z][^\n]*:[ \t]*$`), 0, func(s string) string {
		return ui.RenderAccent(strings.TrimRight(s, " \t"))
	}},
	// Subcommand names in the command list.
	{regexp.MustCompile(`(?m)^  (\w[\w-]*)  `), 1, ui.RenderCommand},
	// Record kind placeholders in usage lines.
	{regexp.MustCompile(`<pit\|match>`), 0, ui.RenderAccent},
	// Flag value types.
	{regexp.MustCompile(`--[\w-]+ (string|int|duration|strings)\b`), 1, ui.RenderMuted},
	// Defaults and the environment variables that feed them.
	{regexp.MustCompile(`\(default [^)]*\)`), 0, ui.RenderMuted},
	{regexp.MustCompile(`\$SCOUT_[A-Z_]+`), 0, ui.RenderWarn},
}

// colorizedHelpFunc returns a Cobra help function that styles the default
// help text when color output is enabled.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		out := cmd.OutOrStdout()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, rule := range helpRules {
		s = rule.apply(s)
	}
	return s
}

func (r helpRule) apply(s string) string {
	if r.group == 0 {
		return r.re.ReplaceAllStringFunc(s, r.render)
	}
	return r.re.ReplaceAllStringFunc(s, func(match string) string {
		idx := r.re.FindStringSubmatchIndex(match)
		start, end := idx[2*r.group], idx[2*r.group+1]
		if start < 0 {
			return match
		}
		return match[:start] + r.render(match[start:end]) + match[end:]
	})
}
