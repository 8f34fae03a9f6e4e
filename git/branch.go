package git

import (
	"context"
	"path/filepath"
	"time"

	"github.com/grovetools/ark/command"
	"github.com/grovetools/ark/errors"
)

// NoBranch is reported when the branch cannot be determined.
const NoBranch = "-"

// DefaultBranchTimeout bounds a single branch lookup.
const DefaultBranchTimeout = 2 * time.Second

// BranchProber looks up the current branch with `git rev-parse`.
type BranchProber struct {
	builder *command.SafeBuilder
	timeout time.Duration
}

// NewBranchProber creates a BranchProber backed by the real git binary.
func NewBranchProber() *BranchProber {
	return NewBranchProberWithBuilder(command.NewSafeBuilder())
}

// NewBranchProberWithBuilder creates a BranchProber with a custom command builder
func NewBranchProberWithBuilder(builder *command.SafeBuilder) *BranchProber {
	return &BranchProber{builder: builder, timeout: DefaultBranchTimeout}
}

// CurrentBranch returns the abbreviated HEAD ref of dir.
func (p *BranchProber) CurrentBranch(ctx context.Context, dir string) (string, error) {
	dir = filepath.FromSlash(dir)
	if err := p.builder.Validate("workDir", dir); err != nil {
		return "", errors.ProbeFailed("git-branch", err)
	}

	cmd, err := p.builder.Build(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", errors.ProbeFailed("git-branch", err)
	}

	branch, err := cmd.InDir(dir).WithTimeout(p.timeout).Output()
	if err != nil {
		return "", errors.ProbeFailed("git-branch", err).WithDetail("dir", dir)
	}
	if branch == "" {
		return "", errors.New(errors.ErrCodeProbeFailed, "git returned an empty branch").WithDetail("dir", dir)
	}
	return branch, nil
}

// BranchOrDefault returns the branch of dir, or NoBranch on any failure.
func BranchOrDefault(ctx context.Context, provider BranchProvider, dir string) string {
	if provider == nil {
		return NoBranch
	}
	branch, err := provider.CurrentBranch(ctx, dir)
	if err != nil || branch == "" {
		return NoBranch
	}
	return branch
}
