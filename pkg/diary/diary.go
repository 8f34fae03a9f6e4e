// Package diary maintains the per-workspace session diary, a markdown file
// grouped by date with the newest date and newest entry first.
package diary

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/ark/errors"
	"github.com/grovetools/ark/util/pathutil"
	"github.com/spf13/afero"
)

const (
	title        = "# Session Log"
	dateLayout   = "2006-01-02"
	clockLayout  = "15:04"
	sidShortLen  = 8
	diaryRelPath = ".claude/tracker/sessions/SESSION-LOG.md"
)

// Entry describes one finished session.
type Entry struct {
	WorkspacePath string
	Callsign      string
	SessionID     string
	Start         time.Time // zero when unknown
	End           time.Time
	Branch        string
	Model         string
	DurationMin   int
	Intent        string
	Outcome       string
	KeyFiles      string
	Notes         string
}

// Writer appends entries to SESSION-LOG.md files.
type Writer struct {
	fs  afero.Fs
	now func() time.Time
}

// NewWriter creates a diary Writer on fs.
func NewWriter(fs afero.Fs) *Writer {
	return &Writer{fs: fs, now: time.Now}
}

// WithClock replaces the time source used for the date section.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// PathFor returns the diary file of a workspace.
func PathFor(workspacePath string) string {
	return filepath.Join(pathutil.Native(workspacePath), filepath.FromSlash(diaryRelPath))
}

// Write inserts e at the top of today's section, creating the file and
// section as needed.
func (w *Writer) Write(e Entry) error {
	path := PathFor(e.WorkspacePath)
	if err := w.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.ErrCodeDiaryWrite, "failed to create diary directory").
			WithDetail("path", path)
	}

	existing, err := afero.ReadFile(w.fs, path)
	if err != nil {
		if exists, _ := afero.Exists(w.fs, path); exists {
			return errors.Wrap(err, errors.ErrCodeDiaryWrite, "failed to read diary").
				WithDetail("path", path)
		}
		existing = nil
	}

	today := w.now().Format(dateLayout)
	content := insert(string(existing), today, Format(e))

	if err := afero.WriteFile(w.fs, path, []byte(content), 0644); err != nil {
		return errors.Wrap(err, errors.ErrCodeDiaryWrite, "failed to write diary").
			WithDetail("path", path)
	}
	return nil
}

// Format renders an entry block, terminated by a newline.
func Format(e Entry) string {
	sid := e.SessionID
	if len(sid) > sidShortLen {
		sid = sid[:sidShortLen]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### %s | %s | %s | %s\n", sid, timeRange(e.Start, e.End), e.Branch, e.Model)
	if e.Callsign != "" {
		fmt.Fprintf(&b, "**Callsign**: %s\n", e.Callsign)
	}
	if e.DurationMin > 0 {
		fmt.Fprintf(&b, "**Duration**: %d min\n", e.DurationMin)
	}
	if e.Intent != "" {
		fmt.Fprintf(&b, "**Intent**: %s\n", e.Intent)
	}
	if e.Outcome != "" {
		fmt.Fprintf(&b, "**Outcome**: %s\n", e.Outcome)
	}
	if e.KeyFiles != "" {
		fmt.Fprintf(&b, "**Key files**: %s\n", e.KeyFiles)
	}
	if e.Notes != "" {
		fmt.Fprintf(&b, "**Notes**: %s\n", e.Notes)
	}
	return b.String()
}

func timeRange(start, end time.Time) string {
	if start.IsZero() {
		return "?-" + end.Format(clockLayout)
	}
	return start.Format(clockLayout) + "-" + end.Format(clockLayout)
}

// insert places entry under the "## <today>" header of existing.
func insert(existing, today, entry string) string {
	if strings.TrimSpace(existing) == "" {
		return title + "\n\n## " + today + "\n\n" + entry
	}

	header := "## " + today
	if idx := headerIndex(existing, header); idx >= 0 {
		pos := idx + len(header)
		for pos < len(existing) && existing[pos] == '\n' {
			pos++
		}
		if pos == len(existing) {
			return strings.TrimRight(existing, "\n") + "\n\n" + entry
		}
		return existing[:pos] + entry + "\n" + existing[pos:]
	}

	titleEnd := 0
	if idx := headerIndex(existing, title); idx >= 0 {
		if nl := strings.IndexByte(existing[idx:], '\n'); nl >= 0 {
			titleEnd = idx + nl + 1
		} else {
			existing += "\n"
			titleEnd = len(existing)
		}
	}
	return existing[:titleEnd] + "\n" + header + "\n\n" + entry + existing[titleEnd:]
}

// headerIndex finds header as a whole line.
func headerIndex(s, header string) int {
	offset := 0
	for {
		idx := strings.Index(s[offset:], header)
		if idx < 0 {
			return -1
		}
		idx += offset
		startOK := idx == 0 || s[idx-1] == '\n'
		end := idx + len(header)
		endOK := end == len(s) || s[end] == '\n' || s[end] == '\r'
		if startOK && endOK {
			return idx
		}
		offset = idx + len(header)
	}
}
