package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/grovetools/ark/pkg/sessions"
)

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// relative renders a stored timestamp as "3 minutes ago", or "never".
func relative(ts string, now time.Time) string {
	t, ok := sessions.ParseTime(ts)
	if !ok {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
