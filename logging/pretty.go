package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ark/tui/theme"
)

// PrettyLogger writes user-facing console lines, separate from the
// structured log.
type PrettyLogger struct {
	writer io.Writer
	styles PrettyStyles
}

// PrettyStyles are the styles of a PrettyLogger.
type PrettyStyles struct {
	Success lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Path    lipgloss.Style
}

// DefaultPrettyStyles derives styles from the active theme.
func DefaultPrettyStyles() PrettyStyles {
	t := theme.DefaultTheme
	return PrettyStyles{
		Success: t.Success.Bold(true),
		Info:    lipgloss.NewStyle().Foreground(t.Colors.Blue),
		Warning: t.Warning,
		Error:   t.Error,
		Key:     t.Muted,
		Value:   lipgloss.NewStyle().Foreground(t.Colors.Cyan).Bold(true),
		Path:    lipgloss.NewStyle().Foreground(t.Colors.Cyan).Italic(true),
	}
}

// NewPrettyLogger creates a PrettyLogger on stdout.
func NewPrettyLogger() *PrettyLogger {
	return &PrettyLogger{
		writer: os.Stdout,
		styles: DefaultPrettyStyles(),
	}
}

// WithWriter sets the destination.
func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.writer = w
	return p
}

// Success prints a message with a checkmark.
func (p *PrettyLogger) Success(message string) {
	fmt.Fprintf(p.writer, "%s %s\n", p.styles.Success.Render("✓"), p.styles.Success.Render(message))
}

// InfoPretty prints a plain informational line.
func (p *PrettyLogger) InfoPretty(message string) {
	fmt.Fprintf(p.writer, "%s\n", p.styles.Info.Render(message))
}

// WarnPretty prints a warning line.
func (p *PrettyLogger) WarnPretty(message string) {
	fmt.Fprintf(p.writer, "%s %s\n", p.styles.Warning.Render("⚠"), p.styles.Warning.Render(message))
}

// ErrorPretty prints an error line.
func (p *PrettyLogger) ErrorPretty(message string, err error) {
	fmt.Fprintf(p.writer, "%s %s", p.styles.Error.Render("✗"), p.styles.Error.Render(message))
	if err != nil {
		fmt.Fprintf(p.writer, ": %s", p.styles.Error.Render(err.Error()))
	}
	fmt.Fprintln(p.writer)
}

// Field prints "key: value".
func (p *PrettyLogger) Field(key string, value interface{}) {
	fmt.Fprintf(p.writer, "%s: %s\n", p.styles.Key.Render(key), p.styles.Value.Render(fmt.Sprint(value)))
}

// Path prints a labelled file path.
func (p *PrettyLogger) Path(label string, path string) {
	fmt.Fprintf(p.writer, "%s: %s\n", p.styles.Key.Render(label), p.styles.Path.Render(path))
}

// Divider prints a horizontal rule.
func (p *PrettyLogger) Divider() {
	fmt.Fprintln(p.writer, p.styles.Key.Render(strings.Repeat("─", 60)))
}

// Blank prints an empty line.
func (p *PrettyLogger) Blank() {
	fmt.Fprintln(p.writer)
}
