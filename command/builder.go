package command

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default command execution timeout
	DefaultTimeout = 5 * time.Second

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 30 * time.Second
)

var validRef = regexp.MustCompile(`^[a-zA-Z0-9/_.-]+$`)

// SafeBuilder provides bounded, validated command execution for probes
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder creates a new SafeBuilder instance with a RealExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(&RealExecutor{})
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		defaultTimeout: DefaultTimeout,
		validators:     makeDefaultValidators(),
		executor:       exec,
	}
}

// makeDefaultValidators returns the default set of validators
func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"workDir": validateWorkDir,
		"gitRef":  validateGitRef,
	}
}

// validateWorkDir ensures a probe working directory is usable
func validateWorkDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("working directory cannot be empty")
	}

	// Prevent command injection via shell metacharacters
	if strings.ContainsAny(dir, ";|&$`\n") {
		return fmt.Errorf("working directory contains invalid characters")
	}

	if !filepath.IsAbs(filepath.FromSlash(dir)) && filepath.VolumeName(dir) == "" {
		return fmt.Errorf("working directory must be absolute: %s", dir)
	}

	return nil
}

// validateGitRef ensures git references are safe
func validateGitRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("git ref cannot be empty")
	}

	// Git refs: alphanumeric, slashes, hyphens, underscores, dots
	if !validRef.MatchString(ref) {
		return fmt.Errorf("invalid git ref: %s", ref)
	}

	return nil
}

// Command represents a safe command configuration
type Command struct {
	ctx      context.Context
	name     string
	args     []string
	dir      string
	timeout  time.Duration
	executor Executor
}

// Build creates a new command with validation
func (sb *SafeBuilder) Build(ctx context.Context, name string, args ...string) (*Command, error) {
	// Validate command name
	if name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	return &Command{
		ctx:      ctx,
		name:     name,
		args:     args,
		timeout:  sb.defaultTimeout,
		executor: sb.executor,
	}, nil
}

// WithTimeout sets a custom timeout for the command
func (c *Command) WithTimeout(timeout time.Duration) *Command {
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	c.timeout = timeout
	return c
}

// InDir sets the working directory for the command
func (c *Command) InDir(dir string) *Command {
	c.dir = dir
	return c
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// Output runs the command under its timeout and returns trimmed stdout.
func (c *Command) Output() (string, error) {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	cmd := c.executor.CommandContext(ctx, c.name, c.args...) //nolint:gosec // SafeBuilder provides validation
	cmd.Dir = c.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%s timed out after %s", c.name, c.timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", c.name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", c.name, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
