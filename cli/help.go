package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ark/tui/theme"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// StdinAnnotation holds an example JSON payload for commands that read
// their input from stdin. Help renders it in a STDIN section.
const StdinAnnotation = "ark.stdin"

const maxWidth = 60
const minWidth = 40

// getTerminalWidth returns the terminal width capped at maxWidth.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minWidth {
		return maxWidth
	}
	if width > maxWidth {
		return maxWidth
	}
	return width
}

// wrapText wraps text to width, preserving existing line breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = maxWidth
	}

	var result []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			result = append(result, paragraph)
			continue
		}

		var line string
		for _, word := range strings.Fields(paragraph) {
			if line == "" {
				line = word
			} else if len(line)+1+len(word) <= width {
				line += " " + word
			} else {
				result = append(result, line)
				line = word
			}
		}
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

// SetStyledHelp applies ark's styled help to cmd. Subcommands inherit it.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// WithStdinExample records payload as the stdin example of cmd.
func WithStdinExample(cmd *cobra.Command, payload string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = make(map[string]string)
	}
	cmd.Annotations[StdinAnnotation] = payload
	return cmd
}

// parseDescription splits a command's long description into main text and examples.
func parseDescription(long string) (description string, examples string) {
	markers := []string{"\nExamples:\n", "\nExample:\n", "\nEXAMPLES:\n", "\nEXAMPLE:\n"}
	for _, marker := range markers {
		if idx := strings.Index(long, marker); idx != -1 {
			return strings.TrimSpace(long[:idx]), strings.TrimSpace(long[idx+len(marker):])
		}
	}
	return long, ""
}

// renderExamples styles example lines: comments muted, "ark" and the
// subcommand coloured, flags highlighted. Piped payloads stay plain.
func renderExamples(w io.Writer, t *theme.Theme, examples string) {
	for _, line := range strings.Split(examples, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			fmt.Fprintln(w)
		case strings.HasPrefix(trimmed, "#"):
			fmt.Fprintln(w, " "+t.Muted.Render(trimmed))
		default:
			fmt.Fprintln(w, " "+styleCommandLine(t, trimmed))
		}
	}
}

// styleCommandLine styles the ark invocation of an example. Everything
// before a pipe is left as written.
func styleCommandLine(t *theme.Theme, line string) string {
	cyan := lipgloss.NewStyle().Foreground(t.Colors.Cyan)
	blue := lipgloss.NewStyle().Foreground(t.Colors.Blue)
	violet := lipgloss.NewStyle().Foreground(t.Colors.Violet)

	prefix := ""
	if idx := strings.LastIndex(line, "| "); idx != -1 {
		prefix = line[:idx+2]
		line = line[idx+2:]
	}

	parts := strings.Fields(line)
	styled := make([]string, 0, len(parts))
	for i, part := range parts {
		switch {
		case i == 0 && part == "ark":
			styled = append(styled, cyan.Render(part))
		case strings.HasPrefix(part, "-"):
			styled = append(styled, violet.Render(part))
		case i > 0 && i <= 2 && !strings.HasPrefix(part, "'"):
			styled = append(styled, blue.Render(part))
		default:
			styled = append(styled, part)
		}
	}
	return "  " + prefix + strings.Join(styled, " ")
}

// renderStdin prints the stdin payload example, one JSON line at a time.
func renderStdin(w io.Writer, t *theme.Theme, payload string) {
	cyan := lipgloss.NewStyle().Foreground(t.Colors.Cyan)
	fmt.Fprintln(w, " "+t.Muted.Render("# JSON object read from stdin; unknown fields are ignored"))
	for _, line := range strings.Split(strings.TrimSpace(payload), "\n") {
		fmt.Fprintln(w, "   "+cyan.Render(line))
	}
}

func styledHelpFunc(cmd *cobra.Command, args []string) {
	t := theme.DefaultTheme
	w := cmd.OutOrStdout()
	blue := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Blue)
	section := lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Orange)
	title := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Orange)

	width := getTerminalWidth() - 2

	fmt.Fprintln(w, " "+title.Render(strings.ToUpper(cmd.CommandPath())))

	description, examples := parseDescription(cmd.Long)
	if cmd.Short != "" {
		for _, line := range strings.Split(wrapText(cmd.Short, width), "\n") {
			fmt.Fprintln(w, " "+t.Italic.Render(line))
		}
	}
	if description != "" && description != cmd.Short {
		fmt.Fprintln(w)
		for _, line := range strings.Split(wrapText(description, width), "\n") {
			fmt.Fprintln(w, " "+line)
		}
	}

	if cmd.Runnable() || cmd.HasSubCommands() {
		fmt.Fprintln(w, "\n "+section.Render("USAGE"))
		if cmd.Runnable() {
			fmt.Fprintf(w, " %s\n", cmd.UseLine())
		}
		if cmd.HasSubCommands() {
			fmt.Fprintf(w, " %s [command]\n", cmd.CommandPath())
		}
	}

	if payload := cmd.Annotations[StdinAnnotation]; payload != "" {
		fmt.Fprintln(w, "\n "+section.Render("STDIN"))
		renderStdin(w, t, payload)
	}

	if cmd.HasAvailableSubCommands() {
		maxLen := 0
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() && len(sub.Name()) > maxLen {
				maxLen = len(sub.Name())
			}
		}

		fmt.Fprintln(w, "\n "+section.Render("COMMANDS"))
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				padding := strings.Repeat(" ", maxLen-len(sub.Name()))
				fmt.Fprintf(w, " %s%s  %s\n", blue.Render(sub.Name()), padding, sub.Short)
			}
		}
	}

	var visibleFlags []*pflag.Flag
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			visibleFlags = append(visibleFlags, f)
		}
	})

	if len(visibleFlags) > 0 {
		if cmd.HasAvailableSubCommands() {
			// Parent commands list their flags on one line.
			var flags []string
			for _, f := range visibleFlags {
				if f.Shorthand != "" {
					flags = append(flags, fmt.Sprintf("-%s/--%s", f.Shorthand, f.Name))
				} else {
					flags = append(flags, fmt.Sprintf("--%s", f.Name))
				}
			}
			fmt.Fprintln(w, "\n "+t.Muted.Render("Flags: "+strings.Join(flags, ", ")))
		} else {
			violet := lipgloss.NewStyle().Foreground(t.Colors.Violet)
			fmt.Fprintln(w, "\n "+section.Render("FLAGS"))
			maxFlagLen := 0
			for _, f := range visibleFlags {
				if n := len(formatFlagName(f)); n > maxFlagLen {
					maxFlagLen = n
				}
			}
			for _, f := range visibleFlags {
				flagStr := formatFlagName(f)
				padding := strings.Repeat(" ", maxFlagLen-len(flagStr))
				usage := f.Usage
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" {
					usage += t.Muted.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
				}
				fmt.Fprintf(w, " %s%s  %s\n", violet.Render(flagStr), padding, usage)
			}
		}
	}

	exampleText := cmd.Example
	if exampleText == "" {
		exampleText = examples
	}
	if exampleText != "" {
		fmt.Fprintln(w, "\n "+section.Render("EXAMPLES"))
		renderExamples(w, t, exampleText)
	}

	if cmd.HasSubCommands() {
		fmt.Fprintf(w, "\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

// formatFlagName returns "-f, --flag" or "    --flag".
func formatFlagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return fmt.Sprintf("    --%s", f.Name)
}
