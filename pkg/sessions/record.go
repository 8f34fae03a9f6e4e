package sessions

import (
	"sort"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive  Status = "active"
	StatusStopped Status = "stopped"
	StatusCrashed Status = "crashed"
)

// TimeLayout is the persisted timestamp format.
const TimeLayout = time.RFC3339Nano

// legacyLayouts are also accepted when reading, for registries written
// without a zone offset.
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Record is one session's entry in the registry. Timestamps are kept as
// strings so that a hand-edited bad value only loses that field.
type Record struct {
	SessionID     string `json:"session_id,omitempty"`
	Callsign      string `json:"callsign"`
	Workspace     string `json:"workspace"`
	WorkspacePath string `json:"workspace_path"`
	Branch        string `json:"branch"`
	Model         string `json:"model"`
	PID           int    `json:"pid"`
	Started       string `json:"started"`
	LastHeartbeat string `json:"last_heartbeat"`
	ContextPct    int    `json:"context_pct"`
	CompactCount  int    `json:"compact_count"`
	Intent        string `json:"intent"`
	Status        Status `json:"status"`
	Stopped       string `json:"stopped,omitempty"`
	CrashedAt     string `json:"crashed_at,omitempty"`
	DurationMin   *int   `json:"duration_min,omitempty"`
	StopReason    string `json:"stop_reason,omitempty"`
}

// IsActive reports whether the session can still change.
func (r *Record) IsActive() bool {
	return r.Status == StatusActive
}

// IsTerminal reports whether the session has stopped or crashed.
func (r *Record) IsTerminal() bool {
	return r.Status == StatusStopped || r.Status == StatusCrashed
}

// StartedAt returns the parsed start time.
func (r *Record) StartedAt() (time.Time, bool) {
	return ParseTime(r.Started)
}

// LastHeartbeatAt returns the parsed last heartbeat time.
func (r *Record) LastHeartbeatAt() (time.Time, bool) {
	return ParseTime(r.LastHeartbeat)
}

// TerminatedAt returns when the session stopped or, failing that, crashed.
func (r *Record) TerminatedAt() (time.Time, bool) {
	if t, ok := ParseTime(r.Stopped); ok {
		return t, true
	}
	return ParseTime(r.CrashedAt)
}

// Registry maps session ids to records.
type Registry map[string]*Record

// Sorted returns the records ordered by session id.
func (reg Registry) Sorted() []*Record {
	ids := make([]string, 0, len(reg))
	for id := range reg {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, reg[id])
	}
	return out
}

// FormatTime renders t in the persisted layout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseTime parses a persisted timestamp. Empty or malformed values
// report false.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, true
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// wholeMinutes returns the floored minutes from start to end, never negative.
func wholeMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}
