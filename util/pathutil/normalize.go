// Package pathutil holds the path handling shared by the registry, the
// diary and configuration. Workspace paths are stored with forward slashes
// on every platform.
package pathutil

import (
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// ToSlash converts backslashes to forward slashes regardless of the host
// OS, so paths recorded on Windows compare equal to their POSIX form.
func ToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Native converts a stored workspace path back to the host separator.
func Native(p string) string {
	return filepath.FromSlash(ToSlash(p))
}

// Same reports whether two paths name the same location, ignoring
// separator style, trailing slashes and, on case-insensitive systems, case.
// The filesystem is not consulted.
func Same(a, b string) bool {
	ca := path.Clean(ToSlash(a))
	cb := path.Clean(ToSlash(b))
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.EqualFold(ca, cb)
	}
	return ca == cb
}
