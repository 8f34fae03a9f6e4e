// Package memory bridges finished sessions into a workspace's daily memory
// notes. It only ever appends to a note that already exists; it never
// creates the memory structure.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/ark/errors"
	"github.com/grovetools/ark/util/pathutil"
	"github.com/spf13/afero"
)

const notesHeader = "## Notes"

// Marker is the session summary swept into the daily note.
type Marker struct {
	WorkspacePath string
	Callsign      string
	DurationMin   int
	Intent        string
	CompactCount  int
}

// Bridge writes session-end markers into memory/daily/<date>.md.
type Bridge struct {
	fs  afero.Fs
	now func() time.Time
}

// NewBridge creates a Bridge on fs.
func NewBridge(fs afero.Fs) *Bridge {
	return &Bridge{fs: fs, now: time.Now}
}

// WithClock replaces the time source.
func (b *Bridge) WithClock(now func() time.Time) *Bridge {
	b.now = now
	return b
}

// DailyDir returns the daily notes directory of a workspace.
func DailyDir(workspacePath string) string {
	return filepath.Join(pathutil.Native(workspacePath), "memory", "daily")
}

// Sweep adds m to today's note. It is a no-op when the daily directory or
// today's note does not exist.
func (b *Bridge) Sweep(m Marker) error {
	dir := DailyDir(m.WorkspacePath)
	if ok, _ := afero.DirExists(b.fs, dir); !ok {
		return nil
	}

	now := b.now()
	path := filepath.Join(dir, now.Format("2006-01-02")+".md")
	existing, err := afero.ReadFile(b.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeMemorySweep, "failed to read daily note").
			WithDetail("path", path)
	}

	content := insertMarker(string(existing), FormatMarker(m, now))
	if err := afero.WriteFile(b.fs, path, []byte(content), 0644); err != nil {
		return errors.Wrap(err, errors.ErrCodeMemorySweep, "failed to write daily note").
			WithDetail("path", path)
	}
	return nil
}

// FormatMarker renders the single-line session-end marker.
func FormatMarker(m Marker, at time.Time) string {
	line := fmt.Sprintf("[%s] [session-end] %s | %d min", at.Format("15:04"), m.Callsign, m.DurationMin)
	if m.Intent != "" {
		line += fmt.Sprintf(" | intent: %q", m.Intent)
	}
	switch {
	case m.CompactCount == 1:
		line += " | 1 compaction"
	case m.CompactCount > 1:
		line += fmt.Sprintf(" | %d compactions", m.CompactCount)
	}
	return line + "\n"
}

func insertMarker(existing, marker string) string {
	idx := strings.Index(existing, notesHeader)
	if idx < 0 {
		return strings.TrimRight(existing, "\n") + "\n\n" + marker
	}

	pos := idx + len(notesHeader)
	for pos < len(existing) && existing[pos] == '\n' {
		pos++
	}
	if pos == len(existing) {
		return strings.TrimRight(existing, "\n") + "\n\n" + marker
	}
	return existing[:pos] + marker + existing[pos:]
}
