// Package paths provides path resolution for ark.
//
// Resolution order for session state:
// 1. Explicit override (ARK_ACTIVE_FILE, ARK_LOG_DIR, ARK_MACHINE_CONFIG)
// 2. ARK_HOME (portable root) → $ARK_HOME/sessions
// 3. Default → ~/.claude/sessions
//
// Tool configuration follows XDG: ARK_CONFIG_DIR, then $XDG_CONFIG_HOME/ark,
// then ~/.config/ark.
package paths

import (
	"os"
	"path/filepath"
)

const (
	registryFileName = "active.json"
	logDirName       = "log"
	machineFileName  = "machine.local.yaml"
)

// homeDir returns the user's home directory, or "" if it cannot be determined.
func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return ""
}

// claudeDir returns the ~/.claude directory.
func claudeDir() string {
	home := homeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".claude")
}

// SessionsDir returns the machine-local session state directory.
func SessionsDir() string {
	if arkHome := os.Getenv("ARK_HOME"); arkHome != "" {
		return filepath.Join(arkHome, "sessions")
	}
	base := claudeDir()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "sessions")
}

// RegistryFile returns the path of the active sessions registry.
func RegistryFile() string {
	if p := os.Getenv("ARK_ACTIVE_FILE"); p != "" {
		return p
	}
	return filepath.Join(SessionsDir(), registryFileName)
}

// LogDir returns the directory holding the date-partitioned event log.
func LogDir() string {
	if p := os.Getenv("ARK_LOG_DIR"); p != "" {
		return p
	}
	return filepath.Join(SessionsDir(), logDirName)
}

// MachineConfigFile returns the path of the machine identity file.
func MachineConfigFile() string {
	if p := os.Getenv("ARK_MACHINE_CONFIG"); p != "" {
		return p
	}
	if arkHome := os.Getenv("ARK_HOME"); arkHome != "" {
		return filepath.Join(arkHome, machineFileName)
	}
	base := claudeDir()
	if base == "" {
		return ""
	}
	return filepath.Join(base, machineFileName)
}

// ConfigDir returns the ark configuration directory.
// Used for ark.yml / ark.toml.
func ConfigDir() string {
	if dir := os.Getenv("ARK_CONFIG_DIR"); dir != "" {
		return dir
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "ark")
	}
	home := homeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "ark")
}

// EnsureDirs creates the session state directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		SessionsDir(),
		LogDir(),
		filepath.Dir(RegistryFile()),
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
