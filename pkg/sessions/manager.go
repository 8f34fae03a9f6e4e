// Package sessions owns the session registry and its lifecycle state
// machine: start, heartbeat, compaction, stop and crash detection.
//
// Every operation is fail-open. Storage, event log and collaborator errors
// are logged and dropped; expected conditions such as an unknown session or
// a throttled heartbeat are reported through result values.
package sessions

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/grovetools/ark/errors"
	"github.com/grovetools/ark/git"
	"github.com/grovetools/ark/pkg/callsign"
	"github.com/grovetools/ark/pkg/diary"
	"github.com/grovetools/ark/pkg/eventlog"
	"github.com/grovetools/ark/pkg/memory"
	"github.com/grovetools/ark/pkg/process"
	"github.com/grovetools/ark/pkg/profiling"
	"github.com/grovetools/ark/util/pathutil"
	"github.com/sirupsen/logrus"
)

const (
	// HeartbeatThrottle is the minimum spacing between recorded heartbeats.
	HeartbeatThrottle = 60 * time.Second

	// UnknownSessionID stands in for an empty session id on start, compact
	// and stop.
	UnknownSessionID = "unknown"

	// DefaultStopReason is used when a stop event carries none.
	DefaultStopReason = "completed"

	defaultModel = "Claude"
)

// EventLog is the event log as the Manager uses it.
type EventLog interface {
	eventlog.Appender
	Cleanup(now time.Time) ([]string, error)
}

// DiaryWriter records a finished session in the workspace diary.
type DiaryWriter interface {
	Write(e diary.Entry) error
}

// MemoryBridge adds a finished session to the workspace's daily notes.
type MemoryBridge interface {
	Sweep(m memory.Marker) error
}

// Options wires a Manager. Store is required; nil collaborators are
// skipped and nil functions fall back to the process defaults.
type Options struct {
	Store    Store
	Events   EventLog
	Resolver *callsign.Resolver
	Branches git.BranchProvider
	Prober   process.Prober
	Diary    DiaryWriter
	Memory   MemoryBridge
	Now      func() time.Time
	PID      func() int
	Getwd    func() (string, error)
	Logger   *logrus.Entry
}

// Manager runs lifecycle operations against a registry Store.
type Manager struct {
	store    Store
	events   EventLog
	resolver *callsign.Resolver
	branches git.BranchProvider
	prober   process.Prober
	diary    DiaryWriter
	memory   MemoryBridge
	now      func() time.Time
	pid      func() int
	getwd    func() (string, error)
	logger   *logrus.Entry
}

// NewManager creates a Manager from opts.
func NewManager(opts Options) *Manager {
	m := &Manager{
		store:    opts.Store,
		events:   opts.Events,
		resolver: opts.Resolver,
		branches: opts.Branches,
		prober:   opts.Prober,
		diary:    opts.Diary,
		memory:   opts.Memory,
		now:      opts.Now,
		pid:      opts.PID,
		getwd:    opts.Getwd,
		logger:   opts.Logger,
	}
	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.resolver == nil {
		m.resolver = callsign.NewDefaultResolver()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.pid == nil {
		m.pid = os.Getpid
	}
	if m.getwd == nil {
		m.getwd = os.Getwd
	}
	if m.logger == nil {
		m.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return m
}

// StartEvent is the input of Start.
type StartEvent struct {
	SessionID string
	Cwd       string
	Model     string
}

// StartResult is returned by Start.
type StartResult struct {
	SessionID string        `json:"session_id"`
	Callsign  string        `json:"callsign"`
	Crashes   []CrashReport `json:"crash_info"`
}

// Start registers a new active session, then sweeps for crashed sessions
// and applies event log retention.
func (m *Manager) Start(ctx context.Context, ev StartEvent) StartResult {
	id := orUnknown(ev.SessionID)
	cwd := m.cwd(ev.Cwd)
	model := ev.Model
	if model == "" {
		model = defaultModel
	}

	sign := m.resolver.Callsign(id, cwd)
	probe := profiling.Start("git.branch")
	branch := git.BranchOrDefault(ctx, m.branches, cwd)
	probe.Stop()
	workspace := callsign.WorkspaceName(cwd)
	pid := m.pid()
	now := FormatTime(m.now())

	reg := m.store.Load()
	reg[id] = &Record{
		SessionID:     id,
		Callsign:      sign,
		Workspace:     workspace,
		WorkspacePath: pathutil.ToSlash(cwd),
		Branch:        branch,
		Model:         model,
		PID:           pid,
		Started:       now,
		LastHeartbeat: now,
		Status:        StatusActive,
	}
	m.save(reg)

	m.append(eventlog.Entry{
		Event:     eventlog.KindStart,
		SessionID: id,
		Callsign:  sign,
		Workspace: workspace,
		Branch:    branch,
		Model:     model,
		PID:       pid,
		TS:        now,
	})
	m.logger.WithFields(logrus.Fields{
		"session_id": id,
		"callsign":   sign,
		"branch":     branch,
	}).Debug("Session started")

	crashes := m.DetectCrashes(ctx)
	m.cleanupEvents()

	return StartResult{SessionID: id, Callsign: sign, Crashes: crashes}
}

// HeartbeatStatus is the outcome of a heartbeat.
type HeartbeatStatus string

const (
	HeartbeatNotFound  HeartbeatStatus = "not_found"
	HeartbeatThrottled HeartbeatStatus = "throttled"
	HeartbeatUpdated   HeartbeatStatus = "updated"
)

// HeartbeatEvent is the input of Heartbeat. ContextPct is negative when
// the usage is unknown.
type HeartbeatEvent struct {
	SessionID  string
	ContextPct int
}

// HeartbeatResult is returned by Heartbeat.
type HeartbeatResult struct {
	Status     HeartbeatStatus `json:"status"`
	Callsign   string          `json:"callsign,omitempty"`
	ContextPct int             `json:"context_pct"`
}

// Heartbeat records that an active session is still alive. Within
// HeartbeatThrottle of the previous heartbeat nothing is written.
func (m *Manager) Heartbeat(ctx context.Context, ev HeartbeatEvent) HeartbeatResult {
	if ev.SessionID == "" {
		return HeartbeatResult{Status: HeartbeatNotFound}
	}

	reg := m.store.Load()
	rec, ok := reg[ev.SessionID]
	if !ok || !rec.IsActive() {
		return HeartbeatResult{Status: HeartbeatNotFound}
	}

	now := m.now()
	if last, ok := rec.LastHeartbeatAt(); ok && now.Sub(last) < HeartbeatThrottle {
		return HeartbeatResult{Status: HeartbeatThrottled, Callsign: rec.Callsign, ContextPct: rec.ContextPct}
	}

	rec.LastHeartbeat = FormatTime(now)
	if ev.ContextPct >= 0 {
		rec.ContextPct = ev.ContextPct
	}
	m.save(reg)

	return HeartbeatResult{Status: HeartbeatUpdated, Callsign: rec.Callsign, ContextPct: rec.ContextPct}
}

// CompactEvent is the input of Compact.
type CompactEvent struct {
	SessionID string
}

// CompactResult is returned by Compact.
type CompactResult struct {
	Found bool `json:"found"`
	Count int  `json:"count"`
}

// Compact counts a context compaction for an active session. Unknown
// sessions are only logged.
func (m *Manager) Compact(ctx context.Context, ev CompactEvent) CompactResult {
	id := orUnknown(ev.SessionID)

	reg := m.store.Load()
	rec, found := reg[id]
	count := 1
	if found {
		if rec.IsActive() {
			rec.CompactCount++
			m.save(reg)
		}
		count = rec.CompactCount
	}

	m.append(eventlog.Entry{
		Event:     eventlog.KindCompact,
		SessionID: id,
		Count:     eventlog.Int(count),
	})
	return CompactResult{Found: found, Count: count}
}

// SetIntent replaces the intent of a session in the registry. It reports
// false when the session is unknown.
func (m *Manager) SetIntent(sessionID, text string) bool {
	if sessionID == "" {
		return false
	}
	reg := m.store.Load()
	rec, ok := reg[sessionID]
	if !ok {
		return false
	}
	rec.Intent = text
	m.save(reg)
	return true
}

// StopEvent is the input of Stop.
type StopEvent struct {
	SessionID string
	Cwd       string
	Reason    string
}

// StopResult is returned by Stop.
type StopResult struct {
	Found       bool   `json:"found"`
	Callsign    string `json:"callsign"`
	DurationMin int    `json:"duration_min"`
	Intent      string `json:"intent"`
}

// Stop ends an active session, then writes the diary entry and the memory
// marker. Collaborator failures never affect the result. Stopping a session
// that already ended changes nothing.
func (m *Manager) Stop(ctx context.Context, ev StopEvent) StopResult {
	id := orUnknown(ev.SessionID)
	reason := ev.Reason
	if reason == "" {
		reason = DefaultStopReason
	}
	now := m.now()

	reg := m.store.Load()
	rec, found := reg[id]
	if !found {
		cwd := m.cwd(ev.Cwd)
		rec = &Record{
			SessionID:     id,
			Callsign:      m.resolver.Callsign(id, cwd),
			WorkspacePath: pathutil.ToSlash(cwd),
			Branch:        git.NoBranch,
			Model:         defaultModel,
		}
	}

	if found && rec.IsTerminal() {
		duration := 0
		if rec.DurationMin != nil {
			duration = *rec.DurationMin
		}
		return StopResult{Found: true, Callsign: rec.Callsign, DurationMin: duration, Intent: rec.Intent}
	}

	started, hasStart := rec.StartedAt()
	duration := 0
	if hasStart {
		duration = wholeMinutes(started, now)
	}

	if found {
		rec.Status = StatusStopped
		rec.Stopped = FormatTime(now)
		rec.DurationMin = eventlog.Int(duration)
		rec.StopReason = reason
		m.save(reg)
	}

	m.append(eventlog.Entry{
		Event:        eventlog.KindStop,
		SessionID:    id,
		Callsign:     rec.Callsign,
		Reason:       reason,
		DurationMin:  eventlog.Int(duration),
		CompactCount: eventlog.Int(rec.CompactCount),
		TS:           FormatTime(now),
	})

	entry := diary.Entry{
		WorkspacePath: rec.WorkspacePath,
		Callsign:      rec.Callsign,
		SessionID:     id,
		End:           now,
		Branch:        rec.Branch,
		Model:         rec.Model,
		DurationMin:   duration,
		Intent:        rec.Intent,
	}
	if hasStart {
		entry.Start = started
	}
	m.writeDiary(entry)
	m.sweepMemory(memory.Marker{
		WorkspacePath: rec.WorkspacePath,
		Callsign:      rec.Callsign,
		DurationMin:   duration,
		Intent:        rec.Intent,
		CompactCount:  rec.CompactCount,
	})

	return StopResult{Found: found, Callsign: rec.Callsign, DurationMin: duration, Intent: rec.Intent}
}

// ActiveSessions returns the active records ordered by start time.
func (m *Manager) ActiveSessions() []Record {
	reg := m.store.Load()
	var out []Record
	for _, rec := range reg.Sorted() {
		if rec.IsActive() {
			out = append(out, *rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := out[i].StartedAt()
		tj, _ := out[j].StartedAt()
		return ti.Before(tj)
	})
	return out
}

// Cleanup applies event log retention and the registry cap outside of a
// session start. It returns the removed log files and evicted session ids.
func (m *Manager) Cleanup() (removedLogs []string, evicted []string) {
	removedLogs = m.cleanupEvents()

	reg := m.store.Load()
	evicted = Purge(reg, MaxTerminalRecords)
	if len(evicted) > 0 {
		m.save(reg)
	}
	return removedLogs, evicted
}

func (m *Manager) cwd(cwd string) string {
	if cwd != "" {
		return cwd
	}
	if wd, err := m.getwd(); err == nil {
		return wd
	}
	return "."
}

func (m *Manager) save(reg Registry) {
	if err := m.store.Save(reg); err != nil {
		m.warn(err, "Failed to save session registry")
	}
}

func (m *Manager) append(e eventlog.Entry) {
	if m.events == nil {
		return
	}
	if err := m.events.Append(e); err != nil {
		m.warn(err, "Failed to append session event")
	}
}

func (m *Manager) cleanupEvents() []string {
	if m.events == nil {
		return nil
	}
	removed, err := m.events.Cleanup(m.now())
	if err != nil {
		m.warn(err, "Event log cleanup failed")
	}
	return removed
}

func (m *Manager) writeDiary(e diary.Entry) {
	if m.diary == nil || e.WorkspacePath == "" {
		return
	}
	if err := m.diary.Write(e); err != nil {
		m.warn(err, "Failed to write session diary")
	}
}

func (m *Manager) sweepMemory(mk memory.Marker) {
	if m.memory == nil || mk.WorkspacePath == "" {
		return
	}
	if err := m.memory.Sweep(mk); err != nil {
		m.warn(err, "Memory bridge sweep failed")
	}
}

func (m *Manager) warn(err error, msg string) {
	entry := m.logger.WithError(err)
	if code := errors.GetCode(err); code != "" {
		entry = entry.WithField("code", code)
	}
	entry.Warn(msg)
}

func orUnknown(id string) string {
	if id == "" {
		return UnknownSessionID
	}
	return id
}
