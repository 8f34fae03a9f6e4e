package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/grovetools/ark/cli"
	"github.com/grovetools/ark/errors"
	"github.com/grovetools/ark/util/sanitize"
	"github.com/spf13/cobra"
)

// sessionEnvVar carries the session id into commands run inside a session.
const sessionEnvVar = "CLAUDE_SESSION_ID"

func newIntentCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "intent <text...>",
		Short: "Set what a session is working on",
		Long: `Set the intent of a session. The intent shows up in status output,
crash reports and the diary entry written when the session stops.

Examples:
  ark intent fix the flaky registry test --session abc123
  CLAUDE_SESSION_ID=abc123 ark intent review open PRs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := sanitize.ForMarkdownLine(strings.Join(args, " "))
			if text == "" {
				return errors.InvalidInput("intent text is required")
			}
			if sessionID == "" {
				sessionID = os.Getenv(sessionEnvVar)
			}
			if sessionID == "" {
				return errors.InvalidInput(fmt.Sprintf("no session given: pass --session or set %s", sessionEnvVar))
			}

			d := newDeps(cmd)
			if !d.manager.SetIntent(sessionID, text) {
				return errors.SessionNotFound(sessionID)
			}

			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"session_id": sessionID,
					"intent":     text,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Intent set: %s\n", text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id (defaults to $"+sessionEnvVar+")")
	return cmd
}
