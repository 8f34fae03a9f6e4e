package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand expands a leading ~ to the home directory and $VAR / ${VAR}
// references to their environment values. The result is not made absolute.
func Expand(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return os.ExpandEnv(path)
}
