// Package eventlog appends session lifecycle events to a date-partitioned
// JSONL log. Each calendar day gets its own YYYY-MM-DD.jsonl file and every
// line is a standalone JSON object.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/grovetools/ark/errors"
	"github.com/spf13/afero"
)

// Kind identifies a lifecycle transition.
type Kind string

const (
	KindStart     Kind = "start"
	KindHeartbeat Kind = "heartbeat"
	KindCompact   Kind = "compact"
	KindStop      Kind = "stop"
	KindCrash     Kind = "crash"
)

const (
	// DateLayout names the per-day log files.
	DateLayout = "2006-01-02"
	// TimeLayout is used for the ts field.
	TimeLayout = time.RFC3339Nano

	fileExt = ".jsonl"
)

// Entry is one immutable log line.
type Entry struct {
	ID            string `json:"id,omitempty"`
	Event         Kind   `json:"event"`
	SessionID     string `json:"session_id"`
	Callsign      string `json:"callsign,omitempty"`
	Workspace     string `json:"workspace,omitempty"`
	Branch        string `json:"branch,omitempty"`
	Model         string `json:"model,omitempty"`
	PID           int    `json:"pid,omitempty"`
	Reason        string `json:"reason,omitempty"`
	DurationMin   *int   `json:"duration_min,omitempty"`
	CompactCount  *int   `json:"compact_count,omitempty"`
	Count         *int   `json:"count,omitempty"`
	LastHeartbeat string `json:"last_heartbeat,omitempty"`
	TS            string `json:"ts"`
}

// Int returns a pointer to n, for the optional numeric fields.
func Int(n int) *int {
	return &n
}

// Appender is the write side of the event log.
type Appender interface {
	Append(e Entry) error
}

// Writer appends entries to the log directory on fs.
type Writer struct {
	fs    afero.Fs
	dir   string
	now   func() time.Time
	newID func() string
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(fs afero.Fs, dir string) *Writer {
	return &Writer{
		fs:    fs,
		dir:   dir,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock replaces the time source used for partitioning and timestamps.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Dir returns the log directory.
func (w *Writer) Dir() string {
	return w.dir
}

// PathFor returns the log file for the calendar date of t.
func (w *Writer) PathFor(t time.Time) string {
	return filepath.Join(w.dir, t.Format(DateLayout)+fileExt)
}

// Append writes e as a single line to today's file. Missing ts and id
// fields are filled in.
func (w *Writer) Append(e Entry) error {
	now := w.now()
	if e.TS == "" {
		e.TS = now.Format(TimeLayout)
	}
	if e.ID == "" {
		e.ID = w.newID()
	}

	line, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal event")
	}
	line = append(line, '\n')

	path := w.PathFor(now)
	if err := w.fs.MkdirAll(w.dir, 0755); err != nil {
		return errors.EventLogAppend(path, err)
	}

	file, err := w.fs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.EventLogAppend(path, err)
	}
	defer file.Close()

	if _, err := file.Write(line); err != nil {
		return errors.EventLogAppend(path, err)
	}
	if err := file.Sync(); err != nil {
		return errors.EventLogAppend(path, err)
	}
	return nil
}

// Read returns the entries logged on the calendar date of day. Lines that
// are not valid JSON are skipped. A missing file yields no entries.
func (w *Writer) Read(day time.Time) ([]Entry, error) {
	path := w.PathFor(day)
	file, err := w.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open event log %s: %w", path, err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read event log %s: %w", path, err)
	}
	return entries, nil
}
