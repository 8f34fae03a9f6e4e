package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/grovetools/ark/cli"
	"github.com/grovetools/ark/errors"
	"github.com/grovetools/ark/pkg/eventlog"
	"github.com/grovetools/ark/tui/theme"
	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var date string
	var follow bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the session event log for a day",
		Long: `Print one day of the session event log. Defaults to today.

Examples:
  ark events
  ark events --date 2026-03-04 --json
  ark events --follow`,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if date != "" {
				parsed, err := time.ParseInLocation(eventlog.DateLayout, date, time.Local)
				if err != nil {
					return errors.InvalidInput(fmt.Sprintf("invalid --date %q, expected YYYY-MM-DD", date))
				}
				day = parsed
			}

			d := newDeps(cmd)
			out := cmd.OutOrStdout()
			jsonOut := cli.GetOptions(cmd).JSONOutput
			emit := func(e eventlog.Entry) { printEvent(out, e, jsonOut) }

			if follow {
				return eventlog.Follow(cmd.Context(), d.events.PathFor(day), emit)
			}

			entries, err := d.events.Read(day)
			if err != nil {
				return err
			}
			for _, e := range entries {
				emit(e)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to print (YYYY-MM-DD)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new events as they are appended")
	return cmd
}

func printEvent(w io.Writer, e eventlog.Entry, asJSON bool) {
	if asJSON {
		data, _ := json.Marshal(e)
		fmt.Fprintln(w, string(data))
		return
	}

	t := theme.DefaultTheme
	ts := e.TS
	if parsed, err := time.Parse(eventlog.TimeLayout, e.TS); err == nil {
		ts = parsed.Local().Format("15:04:05")
	}

	var extra []string
	if e.Reason != "" {
		extra = append(extra, "reason="+e.Reason)
	}
	if e.DurationMin != nil {
		extra = append(extra, fmt.Sprintf("duration=%dm", *e.DurationMin))
	}
	if e.Count != nil {
		extra = append(extra, fmt.Sprintf("count=%d", *e.Count))
	}
	if e.Branch != "" {
		extra = append(extra, "branch="+e.Branch)
	}

	name := e.Callsign
	if name == "" {
		name = e.SessionID
	}
	fmt.Fprintf(w, "%s %s %s %s\n",
		t.Muted.Render(ts),
		theme.RenderStatus(string(e.Event), fmt.Sprintf("%-9s", e.Event)),
		t.Bold.Render(name),
		t.Muted.Render(strings.Join(extra, " ")),
	)
}
