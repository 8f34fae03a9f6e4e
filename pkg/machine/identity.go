// Package machine reads the machine identity file (machine.local.yaml).
//
// The file is read line by line rather than as full YAML: only the
// workspace_root and id keys matter, and a partially broken file must still
// yield whatever keys are readable.
package machine

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/spf13/afero"
)

// UnknownID is reported when no machine id is available.
const UnknownID = "unknown"

// Identity is the typed view of the machine identity file.
type Identity struct {
	WorkspaceRoot string `json:"workspace_root,omitempty"`
	MachineID     string `json:"machine_id"`
	found         bool
}

// Found reports whether any key was read from the file.
func (i Identity) Found() bool {
	return i.found
}

// Load reads the identity file at path. A missing or unreadable file yields
// an unknown identity.
func Load(fs afero.Fs, path string) Identity {
	if path == "" {
		return Identity{MachineID: UnknownID}
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Identity{MachineID: UnknownID}
	}
	return Parse(data)
}

// Parse extracts workspace_root and id from data.
func Parse(data []byte) Identity {
	var id Identity
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := splitLine(scanner.Text())
		if !ok {
			continue
		}
		switch key {
		case "workspace_root":
			id.WorkspaceRoot = value
			id.found = true
		case "id":
			id.MachineID = value
			id.found = true
		}
	}
	if id.MachineID == "" {
		id.MachineID = UnknownID
	}
	return id
}

func splitLine(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	key, value, ok = strings.Cut(trimmed, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), unquote(strings.TrimSpace(value)), true
}

func unquote(s string) string {
	s = strings.Trim(s, `"`)
	return strings.Trim(s, `'`)
}
