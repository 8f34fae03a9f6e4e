// Package callsign derives short, human-memorable workspace codes from
// filesystem paths and combines them with session ids into callsigns
// such as "CMH-a3f7".
package callsign

import (
	"os"
	"path"
	"strings"
	"sync"
	"unicode"

	"github.com/grovetools/ark/util/pathutil"
)

const (
	// HomeShortCode is returned for the user's home directory.
	HomeShortCode = "CMD"

	// EmptySessionSuffix replaces the id prefix when the session id is empty.
	EmptySessionSuffix = "0000"

	maxShortLen = 4
	idPrefixLen = 4
)

// Resolver resolves workspace short codes and caches them per input path
// for its lifetime.
type Resolver struct {
	home  string
	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a Resolver that treats home as the home directory.
func NewResolver(home string) *Resolver {
	return &Resolver{
		home:  home,
		cache: make(map[string]string),
	}
}

// NewDefaultResolver creates a Resolver for the current user's home directory.
func NewDefaultResolver() *Resolver {
	home, _ := os.UserHomeDir()
	return NewResolver(home)
}

// ShortCode returns the workspace short code for cwd.
func (r *Resolver) ShortCode(cwd string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if short, ok := r.cache[cwd]; ok {
		return short
	}
	short := resolve(cwd, r.home)
	r.cache[cwd] = short
	return short
}

// Callsign returns "<short>-<first 4 chars of sessionID>".
func (r *Resolver) Callsign(sessionID, cwd string) string {
	return r.ShortCode(cwd) + "-" + idPrefix(sessionID)
}

// Reset drops all cached short codes.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]string)
}

// WorkspaceName returns the final path segment of cwd after separator
// normalization.
func WorkspaceName(cwd string) string {
	normalized := strings.TrimRight(pathutil.ToSlash(cwd), "/")
	if normalized == "" {
		return ""
	}
	return path.Base(normalized)
}

func resolve(cwd, home string) string {
	if home != "" && pathutil.Same(cwd, home) {
		return HomeShortCode
	}

	base := WorkspaceName(cwd)
	parts := strings.Split(base, "-")
	if len(parts) > 0 && isDigits(parts[0]) {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return upperPrefix(base, maxShortLen)
	}

	var initials []rune
	for _, part := range parts {
		if part == "" {
			continue
		}
		initials = append(initials, []rune(part)[0])
		if len(initials) == maxShortLen {
			break
		}
	}
	if len(initials) < 2 {
		return upperPrefix(base, maxShortLen)
	}
	return strings.ToUpper(string(initials))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func upperPrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.ToUpper(string(runes))
}

func idPrefix(sessionID string) string {
	if sessionID == "" {
		return EmptySessionSuffix
	}
	runes := []rune(sessionID)
	if len(runes) > idPrefixLen {
		runes = runes[:idPrefixLen]
	}
	return string(runes)
}
