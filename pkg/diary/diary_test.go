package diary

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d, h, m int) time.Time {
	return time.Date(2026, 2, d, h, m, 0, 0, time.Local)
}

func TestWriteCreatesDiary(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(fs).WithClock(func() time.Time { return day(14, 10, 30) })

	err := w.Write(Entry{
		WorkspacePath: "/work/ark-test-diary",
		Callsign:      "TST-diry",
		SessionID:     "diary-test-001",
		Start:         day(14, 10, 0),
		End:           day(14, 10, 30),
		Branch:        "main",
		Model:         "Opus 4.6",
		DurationMin:   30,
		Intent:        "Diary test",
		Outcome:       "All good",
		KeyFiles:      "src/test.go",
	})
	require.NoError(t, err)

	raw, err := afero.ReadFile(fs, PathFor("/work/ark-test-diary"))
	require.NoError(t, err)
	content := string(raw)

	assert.True(t, strings.HasPrefix(content, "# Session Log\n\n## 2026-02-14\n\n### diary-te | 10:00-10:30 | main | Opus 4.6\n"))
	assert.Contains(t, content, "**Callsign**: TST-diry")
	assert.Contains(t, content, "**Duration**: 30 min")
	assert.Contains(t, content, "**Intent**: Diary test")
	assert.Contains(t, content, "**Outcome**: All good")
	assert.Contains(t, content, "**Key files**: src/test.go")
	assert.NotContains(t, content, "**Notes**")
}

func TestWriteNewestFirst(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := day(14, 9, 0)
	w := NewWriter(fs).WithClock(func() time.Time { return now })

	require.NoError(t, w.Write(Entry{WorkspacePath: "/ws", SessionID: "first", End: now, Branch: "-", Model: "Claude"}))
	now = day(14, 11, 0)
	require.NoError(t, w.Write(Entry{WorkspacePath: "/ws", SessionID: "second", End: now, Branch: "-", Model: "Claude"}))
	now = day(15, 8, 0)
	require.NoError(t, w.Write(Entry{WorkspacePath: "/ws", SessionID: "third", End: now, Branch: "-", Model: "Claude"}))

	raw, err := afero.ReadFile(fs, PathFor("/ws"))
	require.NoError(t, err)
	content := string(raw)

	order := []string{"# Session Log", "## 2026-02-15", "### third", "## 2026-02-14", "### second", "### first"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(content, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}
	assert.Equal(t, 1, strings.Count(content, "## 2026-02-14\n"))
}

func TestFormatUnknownStart(t *testing.T) {
	out := Format(Entry{SessionID: "abc", End: day(14, 12, 5), Branch: "-", Model: "Claude"})
	assert.Equal(t, "### abc | ?-12:05 | - | Claude\n", out)
}

func TestWriteReadOnlyFs(t *testing.T) {
	w := NewWriter(afero.NewReadOnlyFs(afero.NewMemMapFs()))
	assert.Error(t, w.Write(Entry{WorkspacePath: "/ws", SessionID: "x"}))
}

func TestInsertWithoutTitle(t *testing.T) {
	out := insert("some notes\n", "2026-02-14", "### x\n")
	assert.Equal(t, "\n## 2026-02-14\n\n### x\nsome notes\n", out)
}
