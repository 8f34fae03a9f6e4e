package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grovetools/ark/pkg/callsign"
	"github.com/grovetools/ark/pkg/diary"
	"github.com/grovetools/ark/pkg/eventlog"
	"github.com/grovetools/ark/pkg/memory"
	"github.com/grovetools/ark/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWorkspace = "/work/07-Carbon-Meth-Hub"

type fakeProber struct {
	alive map[int]bool
	err   error
	calls int
}

func (p *fakeProber) Alive(_ context.Context, pid int) (bool, error) {
	p.calls++
	if p.err != nil {
		return false, p.err
	}
	return p.alive[pid], nil
}

type fakeBranches struct {
	branch string
	err    error
}

func (b fakeBranches) CurrentBranch(context.Context, string) (string, error) {
	return b.branch, b.err
}

type fakeDiary struct {
	entries []diary.Entry
	err     error
}

func (d *fakeDiary) Write(e diary.Entry) error {
	d.entries = append(d.entries, e)
	return d.err
}

type fakeMemory struct {
	markers []memory.Marker
	err     error
}

func (m *fakeMemory) Sweep(mk memory.Marker) error {
	m.markers = append(m.markers, mk)
	return m.err
}

type harness struct {
	clock  *testutil.Clock
	store  *MemoryStore
	events *eventlog.Writer
	prober *fakeProber
	diary  *fakeDiary
	memory *fakeMemory
	logs   *test.Hook
	mgr    *Manager
	pid    int
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	h := &harness{
		clock:  testutil.NewClock(time.Date(2026, 2, 14, 10, 0, 0, 0, time.Local)),
		store:  NewMemoryStore(),
		prober: &fakeProber{alive: map[int]bool{}},
		diary:  &fakeDiary{},
		memory: &fakeMemory{},
		logs:   hook,
		pid:    4242,
	}
	h.events = eventlog.NewWriter(afero.NewMemMapFs(), "/sessions/log").WithClock(h.clock.Now)
	h.mgr = NewManager(Options{
		Store:    h.store,
		Events:   h.events,
		Resolver: callsign.NewResolver("/home/dev"),
		Branches: fakeBranches{branch: "main"},
		Prober:   h.prober,
		Diary:    h.diary,
		Memory:   h.memory,
		Now:      h.clock.Now,
		PID:      func() int { return h.pid },
		Getwd:    func() (string, error) { return "/work/fallback-dir", nil },
		Logger:   logrus.NewEntry(logger),
	})
	return h
}

func (h *harness) record(t *testing.T, id string) *Record {
	t.Helper()
	rec, ok := h.store.Load()[id]
	require.True(t, ok, "session %s not in registry", id)
	return rec
}

func (h *harness) eventsOfKind(t *testing.T, kind eventlog.Kind) []eventlog.Entry {
	t.Helper()
	all, err := h.events.Read(h.clock.Now())
	require.NoError(t, err)
	var out []eventlog.Entry
	for _, e := range all {
		if e.Event == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestStartRegistersSession(t *testing.T) {
	h := newHarness(t)

	res := h.mgr.Start(context.Background(), StartEvent{SessionID: "abc123", Cwd: testWorkspace, Model: "Opus 4.6"})
	assert.Equal(t, "CMH-abc1", res.Callsign)
	assert.Equal(t, "abc123", res.SessionID)
	assert.Empty(t, res.Crashes)

	rec := h.record(t, "abc123")
	assert.Equal(t, StatusActive, rec.Status)
	assert.Equal(t, "07-Carbon-Meth-Hub", rec.Workspace)
	assert.Equal(t, testWorkspace, rec.WorkspacePath)
	assert.Equal(t, "main", rec.Branch)
	assert.Equal(t, "Opus 4.6", rec.Model)
	assert.Equal(t, 4242, rec.PID)
	assert.Equal(t, rec.Started, rec.LastHeartbeat)
	assert.Zero(t, rec.ContextPct)
	assert.Zero(t, rec.CompactCount)

	starts := h.eventsOfKind(t, eventlog.KindStart)
	require.Len(t, starts, 1)
	assert.Equal(t, "CMH-abc1", starts[0].Callsign)
	assert.Equal(t, 4242, starts[0].PID)
	assert.NotEmpty(t, starts[0].ID)
}

func TestStartDefaults(t *testing.T) {
	h := newHarness(t)
	h.mgr.branches = fakeBranches{err: errors.New("not a repo")}

	res := h.mgr.Start(context.Background(), StartEvent{})
	assert.Equal(t, UnknownSessionID, res.SessionID)
	assert.Equal(t, "FD-unkn", res.Callsign)

	rec := h.record(t, UnknownSessionID)
	assert.Equal(t, "-", rec.Branch)
	assert.Equal(t, "Claude", rec.Model)
	assert.Equal(t, "/work/fallback-dir", rec.WorkspacePath)
}

func TestStartSweepsStaleSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.mgr.Start(ctx, StartEvent{SessionID: "old-session", Cwd: "/work/simple"})
	h.clock.Advance(30 * time.Minute)

	h.pid = 5000
	h.prober.alive[5000] = true
	res := h.mgr.Start(ctx, StartEvent{SessionID: "new-session", Cwd: testWorkspace})

	require.Len(t, res.Crashes, 1)
	assert.Equal(t, "old-session", res.Crashes[0].SessionID)
	assert.Equal(t, "SIMP-old-", res.Crashes[0].Callsign)
	assert.Equal(t, StatusActive, h.record(t, "new-session").Status)
}

func TestHeartbeatThrottled(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})
	before := *h.record(t, "abc123")
	saves := h.store.Saves()

	h.clock.Advance(59 * time.Second)
	res := h.mgr.Heartbeat(ctx, HeartbeatEvent{SessionID: "abc123", ContextPct: 55})

	assert.Equal(t, HeartbeatThrottled, res.Status)
	assert.Equal(t, "CMH-abc1", res.Callsign)
	assert.Equal(t, saves, h.store.Saves())
	after := h.record(t, "abc123")
	assert.Equal(t, before.LastHeartbeat, after.LastHeartbeat)
	assert.Equal(t, 0, after.ContextPct)
}

func TestHeartbeatNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mgr.Start(ctx, StartEvent{SessionID: "done", Cwd: testWorkspace})
	h.mgr.Stop(ctx, StopEvent{SessionID: "done"})
	h.clock.Advance(5 * time.Minute)

	for _, id := range []string{"", "missing", "done"} {
		res := h.mgr.Heartbeat(ctx, HeartbeatEvent{SessionID: id, ContextPct: 10})
		assert.Equal(t, HeartbeatNotFound, res.Status, "session %q", id)
	}
}

func TestHeartbeatUpdates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})

	h.clock.Advance(2 * time.Minute)
	res := h.mgr.Heartbeat(ctx, HeartbeatEvent{SessionID: "abc123", ContextPct: 25})
	assert.Equal(t, HeartbeatUpdated, res.Status)
	assert.Equal(t, 25, res.ContextPct)

	h.clock.Advance(2 * time.Minute)
	res = h.mgr.Heartbeat(ctx, HeartbeatEvent{SessionID: "abc123", ContextPct: -1})
	assert.Equal(t, HeartbeatUpdated, res.Status)
	assert.Equal(t, 25, res.ContextPct)

	rec := h.record(t, "abc123")
	assert.Equal(t, 25, rec.ContextPct)
	assert.Equal(t, FormatTime(h.clock.Now()), rec.LastHeartbeat)
}

func TestHeartbeatMalformedTimestampIsDue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})

	reg := h.store.Load()
	reg["abc123"].LastHeartbeat = "yesterday-ish"
	require.NoError(t, h.store.Save(reg))

	res := h.mgr.Heartbeat(ctx, HeartbeatEvent{SessionID: "abc123", ContextPct: 5})
	assert.Equal(t, HeartbeatUpdated, res.Status)
}

func TestCompactCountsExactly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})

	for i := 1; i <= 5; i++ {
		res := h.mgr.Compact(ctx, CompactEvent{SessionID: "abc123"})
		assert.True(t, res.Found)
		assert.Equal(t, i, res.Count)
	}
	assert.Equal(t, 5, h.record(t, "abc123").CompactCount)

	compacts := h.eventsOfKind(t, eventlog.KindCompact)
	require.Len(t, compacts, 5)
	assert.Equal(t, 5, *compacts[4].Count)
}

func TestCompactUnknownSession(t *testing.T) {
	h := newHarness(t)

	res := h.mgr.Compact(context.Background(), CompactEvent{})
	assert.False(t, res.Found)
	assert.Equal(t, 1, res.Count)
	assert.Empty(t, h.store.Load())

	compacts := h.eventsOfKind(t, eventlog.KindCompact)
	require.Len(t, compacts, 1)
	assert.Equal(t, UnknownSessionID, compacts[0].SessionID)
}

func TestSetIntent(t *testing.T) {
	h := newHarness(t)
	h.mgr.Start(context.Background(), StartEvent{SessionID: "abc123", Cwd: testWorkspace})

	assert.True(t, h.mgr.SetIntent("abc123", "Fix the flaky test"))
	assert.Equal(t, "Fix the flaky test", h.record(t, "abc123").Intent)

	assert.False(t, h.mgr.SetIntent("missing", "nope"))
	assert.False(t, h.mgr.SetIntent("", "nope"))
}

func TestStopRecordsDuration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace, Model: "Opus 4.6"})
	h.mgr.SetIntent("abc123", "Refactor")
	h.mgr.Compact(ctx, CompactEvent{SessionID: "abc123"})

	h.clock.Advance(12*time.Minute + 59*time.Second)
	res := h.mgr.Stop(ctx, StopEvent{SessionID: "abc123"})

	assert.True(t, res.Found)
	assert.Equal(t, "CMH-abc1", res.Callsign)
	assert.Equal(t, 12, res.DurationMin)
	assert.Equal(t, "Refactor", res.Intent)

	rec := h.record(t, "abc123")
	assert.Equal(t, StatusStopped, rec.Status)
	assert.Equal(t, DefaultStopReason, rec.StopReason)
	require.NotNil(t, rec.DurationMin)
	assert.Equal(t, 12, *rec.DurationMin)
	assert.Equal(t, FormatTime(h.clock.Now()), rec.Stopped)

	require.Len(t, h.diary.entries, 1)
	d := h.diary.entries[0]
	assert.Equal(t, testWorkspace, d.WorkspacePath)
	assert.Equal(t, "main", d.Branch)
	assert.Equal(t, "Opus 4.6", d.Model)
	assert.Equal(t, 12, d.DurationMin)
	assert.False(t, d.Start.IsZero())

	require.Len(t, h.memory.markers, 1)
	assert.Equal(t, memory.Marker{
		WorkspacePath: testWorkspace,
		Callsign:      "CMH-abc1",
		DurationMin:   12,
		Intent:        "Refactor",
		CompactCount:  1,
	}, h.memory.markers[0])

	stops := h.eventsOfKind(t, eventlog.KindStop)
	require.Len(t, stops, 1)
	assert.Equal(t, 12, *stops[0].DurationMin)
	assert.Equal(t, 1, *stops[0].CompactCount)
}

func TestStopIgnoresCollaboratorFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.diary.err = errors.New("disk full")
	h.memory.err = errors.New("permission denied")
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})

	h.clock.Advance(7 * time.Minute)
	res := h.mgr.Stop(ctx, StopEvent{SessionID: "abc123", Reason: "user_exit"})

	assert.Equal(t, 7, res.DurationMin)
	assert.Equal(t, StatusStopped, h.record(t, "abc123").Status)
	assert.Len(t, h.memory.markers, 1, "memory bridge runs even when the diary fails")

	var warnings int
	for _, e := range h.logs.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestStopIsTerminal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})
	h.clock.Advance(3 * time.Minute)
	h.mgr.Stop(ctx, StopEvent{SessionID: "abc123"})
	first := *h.record(t, "abc123")

	h.clock.Advance(10 * time.Minute)
	res := h.mgr.Stop(ctx, StopEvent{SessionID: "abc123", Reason: "again"})

	assert.True(t, res.Found)
	assert.Equal(t, 3, res.DurationMin)
	second := h.record(t, "abc123")
	assert.Equal(t, first.Stopped, second.Stopped)
	assert.Equal(t, DefaultStopReason, second.StopReason)
	assert.Len(t, h.diary.entries, 1)
}

func TestStopUnknownSession(t *testing.T) {
	h := newHarness(t)

	res := h.mgr.Stop(context.Background(), StopEvent{SessionID: "ghost1", Cwd: testWorkspace})
	assert.False(t, res.Found)
	assert.Equal(t, "CMH-ghos", res.Callsign)
	assert.Zero(t, res.DurationMin)
	assert.Empty(t, h.store.Load())

	require.Len(t, h.diary.entries, 1)
	assert.True(t, h.diary.entries[0].Start.IsZero())
}

func TestDetectCrashesOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})
	h.mgr.SetIntent("abc123", "Ship it")

	h.clock.Advance(30 * time.Minute)
	reports := h.mgr.DetectCrashes(ctx)

	require.Len(t, reports, 1)
	assert.Equal(t, CrashReport{
		SessionID:     "abc123",
		Callsign:      "CMH-abc1",
		Workspace:     "07-Carbon-Meth-Hub",
		Branch:        "main",
		Intent:        "Ship it",
		LastHeartbeat: h.record(t, "abc123").LastHeartbeat,
		Started:       h.record(t, "abc123").Started,
	}, reports[0])

	rec := h.record(t, "abc123")
	assert.Equal(t, StatusCrashed, rec.Status)
	assert.Equal(t, FormatTime(h.clock.Now()), rec.CrashedAt)

	assert.Empty(t, h.mgr.DetectCrashes(ctx))
	assert.Len(t, h.eventsOfKind(t, eventlog.KindCrash), 1)
}

func TestHeartbeatingSessionNeverCrashes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})

	for i := 0; i < 24; i++ {
		h.clock.Advance(5 * time.Minute)
		require.Equal(t, HeartbeatUpdated, h.mgr.Heartbeat(ctx, HeartbeatEvent{SessionID: "abc123", ContextPct: -1}).Status)
		assert.Empty(t, h.mgr.DetectCrashes(ctx))
	}
	assert.Equal(t, StatusActive, h.record(t, "abc123").Status)
	assert.Zero(t, h.prober.calls)
}

func TestDetectCrashesSparesLiveProcess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.prober.alive[h.pid] = true
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})

	h.clock.Advance(30 * time.Minute)
	assert.Empty(t, h.mgr.DetectCrashes(ctx))
	assert.Equal(t, StatusActive, h.record(t, "abc123").Status)
	assert.Equal(t, 1, h.prober.calls)
}

func TestDetectCrashesProbeErrorIsDead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.prober.alive[h.pid] = true
	h.prober.err = errors.New("probe timed out")
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})

	h.clock.Advance(11 * time.Minute)
	assert.Len(t, h.mgr.DetectCrashes(ctx), 1)
}

func TestDetectCrashesAtThreshold(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})

	h.clock.Advance(CrashThreshold)
	assert.Empty(t, h.mgr.DetectCrashes(ctx))
}

func TestActiveSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mgr.Start(ctx, StartEvent{SessionID: "zzz-first", Cwd: testWorkspace})
	h.clock.Advance(time.Minute)
	h.mgr.Start(ctx, StartEvent{SessionID: "aaa-second", Cwd: testWorkspace})
	h.clock.Advance(time.Minute)
	h.mgr.Start(ctx, StartEvent{SessionID: "stopped", Cwd: testWorkspace})
	h.mgr.Stop(ctx, StopEvent{SessionID: "stopped"})

	active := h.mgr.ActiveSessions()
	require.Len(t, active, 2)
	assert.Equal(t, "zzz-first", active[0].SessionID)
	assert.Equal(t, "aaa-second", active[1].SessionID)
}

func TestSaveFailureIsLogged(t *testing.T) {
	h := newHarness(t)
	h.store.FailSaves(errors.New("read-only"))

	res := h.mgr.Start(context.Background(), StartEvent{SessionID: "abc123", Cwd: testWorkspace})
	assert.Equal(t, "CMH-abc1", res.Callsign)

	var codes []interface{}
	for _, e := range h.logs.AllEntries() {
		if e.Level == logrus.WarnLevel {
			codes = append(codes, e.Data["code"])
		}
	}
	assert.NotEmpty(t, codes)
}

func TestEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	start := h.mgr.Start(ctx, StartEvent{SessionID: "abc123", Cwd: testWorkspace})
	assert.Equal(t, "CMH-abc1", start.Callsign)

	assert.Equal(t, HeartbeatThrottled, h.mgr.Heartbeat(ctx, HeartbeatEvent{SessionID: "abc123", ContextPct: 40}).Status)

	h.clock.Advance(HeartbeatThrottle + time.Second)
	hb := h.mgr.Heartbeat(ctx, HeartbeatEvent{SessionID: "abc123", ContextPct: 80000 * 100 / 200000})
	assert.Equal(t, HeartbeatUpdated, hb.Status)
	assert.Equal(t, 40, h.record(t, "abc123").ContextPct)

	h.clock.Advance(12*time.Minute - HeartbeatThrottle - time.Second)
	stop := h.mgr.Stop(ctx, StopEvent{SessionID: "abc123"})
	assert.Equal(t, 12, stop.DurationMin)
	assert.Equal(t, StatusStopped, h.record(t, "abc123").Status)
}
