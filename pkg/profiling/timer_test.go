package profiling

import (
	"bytes"
	"testing"
	"time"

	"github.com/grovetools/ark/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderNestsSpans(t *testing.T) {
	clock := testutil.NewClock(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))
	r := NewRecorder(clock.Now)

	outer := r.Start("hook.start")
	clock.Advance(2 * time.Millisecond)
	inner := r.Start("registry.load")
	clock.Advance(6 * time.Millisecond)
	inner.Stop()
	clock.Advance(2 * time.Millisecond)
	outer.Stop()

	var buf bytes.Buffer
	r.Summarize(&buf)

	assert.Equal(t, "--- timing ---\n"+
		"- hook.start (10ms, 100.0%)\n"+
		"  - registry.load (6ms, 60.0%)\n", buf.String())
}

func TestDisabledRecorderIsNoop(t *testing.T) {
	r := &Recorder{now: time.Now}
	r.Start("ignored").Stop()

	var buf bytes.Buffer
	r.Summarize(&buf)
	assert.Empty(t, buf.String())
}

func TestSiblingsAfterStop(t *testing.T) {
	clock := testutil.NewClock(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))
	r := NewRecorder(clock.Now)

	a := r.Start("a")
	clock.Advance(time.Millisecond)
	a.Stop()
	b := r.Start("b")
	clock.Advance(time.Millisecond)
	b.Stop()

	assert.Len(t, r.root.children, 2)
	assert.Len(t, r.stack, 1)
}
