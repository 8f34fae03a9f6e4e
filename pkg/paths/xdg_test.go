package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArkHomeOverride(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ARK_HOME", root)
	t.Setenv("ARK_ACTIVE_FILE", "")
	t.Setenv("ARK_LOG_DIR", "")
	t.Setenv("ARK_MACHINE_CONFIG", "")

	assert.Equal(t, filepath.Join(root, "sessions"), SessionsDir())
	assert.Equal(t, filepath.Join(root, "sessions", "active.json"), RegistryFile())
	assert.Equal(t, filepath.Join(root, "sessions", "log"), LogDir())
	assert.Equal(t, filepath.Join(root, "machine.local.yaml"), MachineConfigFile())
}

func TestExplicitFileOverrides(t *testing.T) {
	t.Setenv("ARK_HOME", t.TempDir())
	t.Setenv("ARK_ACTIVE_FILE", "/var/tmp/registry.json")
	t.Setenv("ARK_LOG_DIR", "/var/tmp/events")
	t.Setenv("ARK_MACHINE_CONFIG", "/etc/ark/machine.yaml")

	assert.Equal(t, "/var/tmp/registry.json", RegistryFile())
	assert.Equal(t, "/var/tmp/events", LogDir())
	assert.Equal(t, "/etc/ark/machine.yaml", MachineConfigFile())
}

func TestConfigDirResolution(t *testing.T) {
	t.Setenv("ARK_CONFIG_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "ark"), ConfigDir())

	t.Setenv("ARK_CONFIG_DIR", "/explicit")
	assert.Equal(t, "/explicit", ConfigDir())
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ARK_HOME", root)
	t.Setenv("ARK_ACTIVE_FILE", "")
	t.Setenv("ARK_LOG_DIR", "")

	require.NoError(t, EnsureDirs())

	info, err := os.Stat(LogDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
