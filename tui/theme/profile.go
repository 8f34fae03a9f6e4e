package theme

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// SetupOutput picks the color profile for w. Plain output (pipes, hook
// stdout, --json) gets no escape codes; CLICOLOR_FORCE or
// COLORTERM=truecolor force full color.
func SetupOutput(w io.Writer, plain bool) {
	switch {
	case plain:
		lipgloss.SetColorProfile(termenv.Ascii)
	case os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
	default:
		lipgloss.SetColorProfile(termenv.NewOutput(w).Profile)
	}
}
