package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grovetools/ark/errors"
	"github.com/grovetools/ark/logging"
	"github.com/grovetools/ark/pkg/diary"
	"github.com/grovetools/ark/pkg/sessions"
	"github.com/grovetools/ark/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arkEnv points all ark state at a temp directory.
func arkEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("ARK_HOME", home)
	t.Setenv("ARK_CONFIG_DIR", filepath.Join(home, "config"))
	t.Setenv("ARK_ACTIVE_FILE", "")
	t.Setenv("ARK_LOG_DIR", "")
	t.Setenv("ARK_MACHINE_CONFIG", "")
	t.Setenv("CLAUDE_SESSION_ID", "")
	t.Setenv("ARK_LOG_LEVEL", "error")
	logging.Reset()
	return home
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func hookPayload(t *testing.T, v map[string]interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestHookLifecycle(t *testing.T) {
	home := arkEnv(t)
	ws := testutil.WorkspaceDir(t, "07-Carbon-Meth-Hub")

	out, err := run(t, hookPayload(t, map[string]interface{}{
		"session_id": "abc123",
		"cwd":        ws,
		"model":      map[string]interface{}{"display_name": "Opus"},
	}), "hook", "start", "--json")
	require.NoError(t, err)

	var started sessions.StartResult
	require.NoError(t, json.Unmarshal([]byte(out), &started))
	assert.Equal(t, "CMH-abc1", started.Callsign)

	out, err = run(t, `{"session_id":"abc123"}`, "hook", "heartbeat", "--json")
	require.NoError(t, err)
	var hb sessions.HeartbeatResult
	require.NoError(t, json.Unmarshal([]byte(out), &hb))
	assert.Equal(t, sessions.HeartbeatThrottled, hb.Status)

	out, err = run(t, `{"session_id":"abc123"}`, "hook", "compact")
	require.NoError(t, err)
	assert.Contains(t, out, "Compaction #1 recorded")

	_, err = run(t, "", "intent", "ship", "the", "registry", "--session", "abc123")
	require.NoError(t, err)

	out, err = run(t, "", "status", "--json")
	require.NoError(t, err)
	var active []sessions.Record
	require.NoError(t, json.Unmarshal([]byte(out), &active))
	require.Len(t, active, 1)
	assert.Equal(t, "ship the registry", active[0].Intent)
	assert.Equal(t, 1, active[0].CompactCount)

	out, err = run(t, `{"session_id":"abc123","stop_reason":"user_exit"}`, "hook", "stop", "--json")
	require.NoError(t, err)
	var stopped sessions.StopResult
	require.NoError(t, json.Unmarshal([]byte(out), &stopped))
	assert.True(t, stopped.Found)
	assert.Equal(t, 0, stopped.DurationMin)
	assert.Equal(t, "ship the registry", stopped.Intent)

	data, err := os.ReadFile(filepath.Join(home, "sessions", "active.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status": "stopped"`)
	assert.FileExists(t, diary.PathFor(ws))

	out, err = run(t, "", "events", "--json")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3, "start, compact and stop are logged; the throttled heartbeat is not")
}

func TestHookHeartbeatUnknownSessionIsSilent(t *testing.T) {
	arkEnv(t)

	out, err := run(t, `{"session_id":"nope"}`, "hook", "heartbeat")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestHookWithGarbageStdin(t *testing.T) {
	arkEnv(t)

	_, err := run(t, "not json at all", "hook", "stop")
	assert.NoError(t, err)
}

func TestIntentErrors(t *testing.T) {
	arkEnv(t)

	_, err := run(t, "", "intent", "--session", "abc123")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = run(t, "", "intent", "something")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = run(t, "", "intent", "something", "--session", "missing")
	assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound))
}

func TestIntentFromEnvironment(t *testing.T) {
	arkEnv(t)
	ws := testutil.WorkspaceDir(t, "simple")

	_, err := run(t, hookPayload(t, map[string]interface{}{"session_id": "env123", "cwd": ws}), "hook", "start")
	require.NoError(t, err)

	t.Setenv("CLAUDE_SESSION_ID", "env123")
	out, err := run(t, "", "intent", "from", "env")
	require.NoError(t, err)
	assert.Contains(t, out, "Intent set: from env")
}

func TestStatusEmpty(t *testing.T) {
	arkEnv(t)

	out, err := run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No active sessions")

	out, err = run(t, "", "status", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestHookHelpShowsPayload(t *testing.T) {
	arkEnv(t)

	out, err := run(t, "", "hook", "stop", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "STDIN")
	assert.Contains(t, out, `"stop_reason": "user_exit"`)
}

func TestEventsInvalidDate(t *testing.T) {
	arkEnv(t)

	_, err := run(t, "", "events", "--date", "yesterday")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestCleanupJSON(t *testing.T) {
	arkEnv(t)

	out, err := run(t, "", "cleanup", "--json")
	require.NoError(t, err)

	var res CleanupOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Empty(t, res.RemovedLogs)
	assert.Empty(t, res.Evicted)
}

func TestCleanupRemovesExpiredLogs(t *testing.T) {
	home := arkEnv(t)
	logDir := filepath.Join(home, "sessions", "log")
	require.NoError(t, os.MkdirAll(logDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "2020-01-01.jsonl"), []byte("{}\n"), 0644))

	out, err := run(t, "", "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 2020-01-01.jsonl")
	assert.Contains(t, out, "─")
	assert.Contains(t, out, "Removed 1 log file(s), evicted 0 session(s)")
	assert.NoFileExists(t, filepath.Join(logDir, "2020-01-01.jsonl"))
}

func TestCrashesNone(t *testing.T) {
	arkEnv(t)

	out, err := run(t, "", "crashes")
	require.NoError(t, err)
	assert.Contains(t, out, "No crashed sessions")
}

func TestPathsHonourEnvironment(t *testing.T) {
	home := arkEnv(t)
	t.Setenv("ARK_LOG_DIR", "/var/tmp/ark-log")

	out, err := run(t, "", "paths")
	require.NoError(t, err)

	var p PathsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, filepath.Join(home, "sessions", "active.json"), p.RegistryFile)
	assert.Equal(t, "/var/tmp/ark-log", p.LogDir)
	assert.Equal(t, filepath.Join(home, "config"), p.ConfigDir)
}

func TestMachineIdentity(t *testing.T) {
	home := arkEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "machine.local.yaml"),
		[]byte("workspace_root: /src\nid: \"studio\"\n"), 0644))

	out, err := run(t, "", "machine", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"machine_id": "studio"`)
	assert.Contains(t, out, `"workspace_root": "/src"`)
}

func TestDiaryDisabledByConfig(t *testing.T) {
	home := arkEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "config", "ark.yml"),
		[]byte("diary:\n  enabled: false\n"), 0644))
	ws := testutil.WorkspaceDir(t, "quiet")

	_, err := run(t, hookPayload(t, map[string]interface{}{"session_id": "q1", "cwd": ws}), "hook", "start")
	require.NoError(t, err)
	_, err = run(t, `{"session_id":"q1"}`, "hook", "stop")
	require.NoError(t, err)

	assert.NoFileExists(t, diary.PathFor(ws))
}

func TestConfigSchema(t *testing.T) {
	arkEnv(t)

	out, err := run(t, "", "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "registry_file")
	assert.True(t, json.Valid([]byte(out)))
}
