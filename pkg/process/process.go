package process

import (
	"context"
	"fmt"
	"time"
)

// DefaultProbeTimeout bounds a single liveness check.
const DefaultProbeTimeout = 3 * time.Second

// Prober reports whether a process is still running.
type Prober interface {
	Alive(ctx context.Context, pid int) (bool, error)
}

// SystemProber checks the local process table.
type SystemProber struct {
	Timeout time.Duration
}

// NewSystemProber creates a SystemProber with the default timeout.
func NewSystemProber() *SystemProber {
	return &SystemProber{Timeout: DefaultProbeTimeout}
}

// Alive checks whether pid is running. The check is abandoned when the
// timeout or ctx expires, in which case an error is returned.
func (p *SystemProber) Alive(ctx context.Context, pid int) (bool, error) {
	// PID 0 or less is invalid.
	if pid <= 0 {
		return false, nil
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		alive bool
		err   error
	}
	done := make(chan result, 1)
	go func() {
		alive, err := isAlive(pid)
		done <- result{alive: alive, err: err}
	}()

	select {
	case r := <-done:
		return r.alive, r.err
	case <-ctx.Done():
		return false, fmt.Errorf("liveness probe for pid %d: %w", pid, ctx.Err())
	}
}
