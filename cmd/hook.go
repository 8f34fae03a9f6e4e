package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/grovetools/ark/cli"
	"github.com/grovetools/ark/logging"
	"github.com/grovetools/ark/pkg/hooks"
	"github.com/grovetools/ark/pkg/sessions"
	"github.com/spf13/cobra"
)

func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Handle host tool lifecycle hooks",
	}
	cmd.Long = `Handle a lifecycle hook. The hook payload is read as JSON from stdin.

Hooks never fail the host tool: unknown sessions, throttled heartbeats and
storage errors are reported but the exit code stays 0.

Examples:
  echo '{"session_id":"abc123","cwd":"/src/app"}' | ark hook start
  echo '{"session_id":"abc123"}' | ark hook stop --json`

	cmd.AddCommand(
		newHookStartCmd(),
		newHookHeartbeatCmd(),
		newHookCompactCmd(),
		newHookStopCmd(),
	)
	return cmd
}

func newHookStartCmd() *cobra.Command {
	return cli.WithStdinExample(&cobra.Command{
		Use:   "start",
		Short: "Register a new session and report crashed ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := hooks.Read(cmd.InOrStdin())
			d := newDeps(cmd)

			res := d.manager.Start(cmd.Context(), sessions.StartEvent{
				SessionID: in.SessionID,
				Cwd:       in.Cwd,
				Model:     in.Model,
			})

			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printCrashBanners(cmd.OutOrStdout(), res.Crashes, time.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s started\n", res.Callsign)
			return nil
		},
	}, `{"session_id": "abc123", "cwd": "/src/app", "model": {"display_name": "Opus"}}`)
}

func newHookHeartbeatCmd() *cobra.Command {
	return cli.WithStdinExample(&cobra.Command{
		Use:   "heartbeat",
		Short: "Record that a session is alive and print its callsign",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := hooks.Read(cmd.InOrStdin())
			d := newDeps(cmd)

			res := d.manager.Heartbeat(cmd.Context(), sessions.HeartbeatEvent{
				SessionID:  in.SessionID,
				ContextPct: in.ContextWindow.Percent(),
			})

			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			if res.Callsign != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.Callsign)
			}
			return nil
		},
	}, `{"session_id": "abc123",
 "context_window": {"current_usage": {"input_tokens": 50000}, "context_window_size": 200000}}`)
}

func newHookCompactCmd() *cobra.Command {
	return cli.WithStdinExample(&cobra.Command{
		Use:   "compact",
		Short: "Count a context compaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := hooks.Read(cmd.InOrStdin())
			d := newDeps(cmd)

			res := d.manager.Compact(cmd.Context(), sessions.CompactEvent{SessionID: in.SessionID})

			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			if res.Found {
				fmt.Fprintf(cmd.OutOrStdout(), "Compaction #%d recorded\n", res.Count)
			}
			return nil
		},
	}, `{"session_id": "abc123"}`)
}

func newHookStopCmd() *cobra.Command {
	return cli.WithStdinExample(&cobra.Command{
		Use:   "stop",
		Short: "End a session and write its diary entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := hooks.Read(cmd.InOrStdin())
			d := newDeps(cmd)

			res := d.manager.Stop(cmd.Context(), sessions.StopEvent{
				SessionID: in.SessionID,
				Cwd:       in.Cwd,
				Reason:    in.StopReason,
			})

			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s ended after %s\n", res.Callsign, minutes(res.DurationMin))
			return nil
		},
	}, `{"session_id": "abc123", "cwd": "/src/app", "stop_reason": "user_exit"}`)
}

// printCrashBanners warns about each crashed session on w.
func printCrashBanners(w io.Writer, crashes []sessions.CrashReport, now time.Time) {
	if len(crashes) == 0 {
		return
	}
	pretty := logging.NewPrettyLogger().WithWriter(w)
	for _, c := range crashes {
		pretty.WarnPretty(fmt.Sprintf("Session %s crashed (last seen %s)", c.Callsign, relative(c.LastHeartbeat, now)))
		pretty.Field("workspace", c.Workspace)
		pretty.Field("branch", c.Branch)
		if c.Intent != "" {
			pretty.Field("intent", c.Intent)
		}
	}
	pretty.Blank()
}

func minutes(n int) string {
	if n == 1 {
		return "1 minute"
	}
	return humanize.Comma(int64(n)) + " minutes"
}
