package sessions

import (
	"context"
	"time"

	"github.com/grovetools/ark/pkg/eventlog"
	"github.com/grovetools/ark/pkg/profiling"
	"github.com/sirupsen/logrus"
)

// CrashThreshold is how long an active session may go without a heartbeat
// before its process is checked.
const CrashThreshold = 10 * time.Minute

// CrashReport describes a session found dead.
type CrashReport struct {
	SessionID     string `json:"session_id"`
	Callsign      string `json:"callsign"`
	Workspace     string `json:"workspace"`
	Branch        string `json:"branch"`
	Intent        string `json:"intent"`
	LastHeartbeat string `json:"last_heartbeat"`
	Started       string `json:"started"`
}

// DetectCrashes marks active sessions whose heartbeat is stale and whose
// process is gone as crashed, then purges the registry. A session is
// reported at most once since crashed records are no longer active.
func (m *Manager) DetectCrashes(ctx context.Context) []CrashReport {
	defer profiling.Start("sessions.detect_crashes").Stop()
	reg := m.store.Load()
	now := m.now()

	var reports []CrashReport
	for _, rec := range reg.Sorted() {
		if !rec.IsActive() || !m.stale(rec, now) {
			continue
		}
		if m.alive(ctx, rec.PID) {
			continue
		}

		rec.Status = StatusCrashed
		rec.CrashedAt = FormatTime(now)

		reports = append(reports, CrashReport{
			SessionID:     rec.SessionID,
			Callsign:      rec.Callsign,
			Workspace:     rec.Workspace,
			Branch:        rec.Branch,
			Intent:        rec.Intent,
			LastHeartbeat: rec.LastHeartbeat,
			Started:       rec.Started,
		})
		m.append(eventlog.Entry{
			Event:         eventlog.KindCrash,
			SessionID:     rec.SessionID,
			Callsign:      rec.Callsign,
			Workspace:     rec.Workspace,
			LastHeartbeat: rec.LastHeartbeat,
			TS:            FormatTime(now),
		})
		m.logger.WithFields(logrus.Fields{
			"session_id": rec.SessionID,
			"callsign":   rec.Callsign,
			"pid":        rec.PID,
		}).Info("Session marked as crashed")
	}

	evicted := Purge(reg, MaxTerminalRecords)
	if len(evicted) > 0 {
		m.logger.WithField("count", len(evicted)).Debug("Purged terminal sessions")
	}
	if len(reports) > 0 || len(evicted) > 0 {
		m.save(reg)
	}
	return reports
}

// stale reports whether rec has gone longer than CrashThreshold without a
// heartbeat. A missing or malformed heartbeat counts as stale.
func (m *Manager) stale(rec *Record, now time.Time) bool {
	last, ok := rec.LastHeartbeatAt()
	if !ok {
		return true
	}
	return now.Sub(last) > CrashThreshold
}

// alive maps probe failures to "not alive".
func (m *Manager) alive(ctx context.Context, pid int) bool {
	if m.prober == nil || pid <= 0 {
		return false
	}
	alive, err := m.prober.Alive(ctx, pid)
	if err != nil {
		m.logger.WithError(err).WithField("pid", pid).Debug("Liveness probe failed")
		return false
	}
	return alive
}
