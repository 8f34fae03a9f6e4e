package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ark/cli"
	"github.com/grovetools/ark/pkg/sessions"
	"github.com/grovetools/ark/pkg/watch"
	"github.com/grovetools/ark/tui/theme"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var watchFlag bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List active sessions",
		Long: `List the active sessions in the registry, oldest first.

Examples:
  ark status
  ark status --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(cmd)
			out := cmd.OutOrStdout()

			if cli.GetOptions(cmd).JSONOutput {
				active := d.manager.ActiveSessions()
				if active == nil {
					active = []sessions.Record{}
				}
				return writeJSON(out, active)
			}

			renderStatus(out, d.manager.ActiveSessions(), time.Now())
			if !watchFlag {
				return nil
			}
			return watchStatus(cmd.Context(), out, d)
		},
	}

	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Re-render whenever the registry changes")
	return cmd
}

// watchStatus re-renders the table on every registry change until ctx ends.
func watchStatus(ctx context.Context, out io.Writer, d *deps) error {
	path := d.store.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	changes := make(chan struct{}, 1)
	w, err := watch.NewRegistryWatcher(path, 0, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch registry: %w", err)
	}
	defer w.Close()
	go w.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			fmt.Fprint(out, "\033[H\033[2J")
			renderStatus(out, d.manager.ActiveSessions(), time.Now())
		}
	}
}

func renderStatus(w io.Writer, active []sessions.Record, now time.Time) {
	t := theme.DefaultTheme
	if len(active) == 0 {
		fmt.Fprintln(w, t.Muted.Render("No active sessions"))
		return
	}

	fmt.Fprintln(w, theme.RenderHeader(fmt.Sprintf("Active sessions (%d)", len(active))))

	cell := lipgloss.NewStyle().PaddingRight(2)
	callsignStyle := cell.Inherit(t.Accent).Bold(true)
	rows := [][]string{{"CALLSIGN", "WORKSPACE", "BRANCH", "CTX", "COMPACT", "LAST SEEN", "INTENT"}}
	for _, rec := range active {
		pct := "-"
		if rec.ContextPct > 0 {
			pct = fmt.Sprintf("%d%%", rec.ContextPct)
		}
		rows = append(rows, []string{
			rec.Callsign,
			rec.Workspace,
			rec.Branch,
			pct,
			fmt.Sprintf("%d", rec.CompactCount),
			relative(rec.LastHeartbeat, now),
			rec.Intent,
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, c := range row {
			if n := lipgloss.Width(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	for r, row := range rows {
		line := ""
		for i, c := range row {
			style := cell.Width(widths[i] + 2)
			switch {
			case r == 0:
				style = style.Inherit(t.Muted)
			case i == 0:
				style = callsignStyle.Width(widths[i] + 2)
			}
			line += style.Render(c)
		}
		fmt.Fprintln(w, line)
	}
}
