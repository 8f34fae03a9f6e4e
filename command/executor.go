package command

import (
	"context"
	"os/exec"
)

// Executor creates the exec.Cmd for a probe. Tests substitute one to
// observe or redirect the commands ark runs.
type Executor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor runs commands through os/exec.
type RealExecutor struct{}

// CommandContext creates a context-bound exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
