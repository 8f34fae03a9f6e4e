// Package profiling times the phases of a single ark invocation. Hooks run
// on every host tool event, so the registry, crash sweep and probe costs
// are worth seeing. Spans are recorded only after Enable.
package profiling

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stopper ends a span.
type Stopper interface {
	Stop()
}

type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
	recorder *Recorder
}

func (s *span) Stop() {
	s.recorder.end(s)
}

// Recorder collects nested spans.
type Recorder struct {
	mu      sync.Mutex
	enabled bool
	now     func() time.Time
	root    *span
	stack   []*span
}

// NewRecorder creates an enabled Recorder using the given clock.
func NewRecorder(now func() time.Time) *Recorder {
	r := &Recorder{now: now}
	r.enable()
	return r
}

var global = &Recorder{now: time.Now}

// Enable turns on the process-wide recorder.
func Enable() {
	global.enable()
}

// Start opens a span on the process-wide recorder. Use as
// defer profiling.Start("name").Stop().
func Start(name string) Stopper {
	return global.Start(name)
}

// Summarize writes the process-wide span tree to w.
func Summarize(w io.Writer) {
	global.Summarize(w)
}

func (r *Recorder) enable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enabled {
		return
	}
	r.enabled = true
	r.root = &span{name: "root", start: r.now(), recorder: r}
	r.stack = []*span{r.root}
}

// Start opens a span nested under the innermost open span.
func (r *Recorder) Start(name string) Stopper {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return noop{}
	}

	parent := r.stack[len(r.stack)-1]
	s := &span{name: name, start: r.now(), recorder: r}
	parent.children = append(parent.children, s)
	r.stack = append(r.stack, s)
	return s
}

func (r *Recorder) end(s *span) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.duration = r.now().Sub(s.start)
	for i := len(r.stack) - 1; i > 0; i-- {
		if r.stack[i] == s {
			r.stack = r.stack[:i]
			return
		}
	}
}

// Summarize writes the span tree with each span's share of the total.
func (r *Recorder) Summarize(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return
	}
	total := r.now().Sub(r.root.start)

	fmt.Fprintln(w, "--- timing ---")
	for _, child := range sortedChildren(r.root) {
		printSpan(w, child, 0, total)
	}
}

func printSpan(w io.Writer, s *span, depth int, total time.Duration) {
	pct := 0.0
	if total > 0 {
		pct = float64(s.duration) / float64(total) * 100
	}
	fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n", strings.Repeat("  ", depth), s.name, s.duration.Round(100*time.Microsecond), pct)
	for _, child := range sortedChildren(s) {
		printSpan(w, child, depth+1, total)
	}
}

func sortedChildren(s *span) []*span {
	out := append([]*span(nil), s.children...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].start.Before(out[j].start)
	})
	return out
}

type noop struct{}

func (noop) Stop() {}
