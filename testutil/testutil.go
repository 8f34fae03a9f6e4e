package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// InitGitRepo initializes a git repository in the given directory
func InitGitRepo(t *testing.T, dir string) {
	t.Helper()

	RunGitCommand(t, dir, "init")
	RunGitCommand(t, dir, "config", "user.name", "Test User")
	RunGitCommand(t, dir, "config", "user.email", "test@example.com")

	// Create initial commit
	CreateCommit(t, dir, "README.md", "# Test Workspace\n")

	// Ensure we have a main branch (rename from master if needed)
	cmd := exec.Command("git", "branch", "-m", "main")
	cmd.Dir = dir
	_ = cmd.Run() // Ignore error as branch might already be named main
}

// CreateBranch creates and checks out a new git branch
func CreateBranch(t *testing.T, dir, branch string) {
	t.Helper()
	RunGitCommand(t, dir, "checkout", "-b", branch)
}

// RunGitCommand runs a git command in the given directory
func RunGitCommand(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to run git %v: %v", args, err)
	}
}

// CreateCommit creates a file and commits it
func CreateCommit(t *testing.T, dir, filename, content string) {
	t.Helper()

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create file %s: %v", filename, err)
	}

	RunGitCommand(t, dir, "add", filename)
	RunGitCommand(t, dir, "commit", "-m", "Add "+filename)
}

// WorkspaceDir creates a named workspace directory under a fresh temp dir.
func WorkspaceDir(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	return dir
}

// Clock is a settable time source for tests.
type Clock struct {
	Current time.Time
}

// NewClock creates a Clock at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{Current: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	return c.Current
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}
