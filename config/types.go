package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ToggleConfig switches an optional collaborator on or off.
type ToggleConfig struct {
	Enabled *bool `yaml:"enabled,omitempty" toml:"enabled,omitempty" json:"enabled,omitempty" jsonschema:"description=Whether this feature runs (default: true)"`
}

// Config is the contents of ark.yml / ark.toml. Every field is optional.
type Config struct {
	RegistryFile  string        `yaml:"registry_file,omitempty" toml:"registry_file,omitempty" json:"registry_file,omitempty" jsonschema:"description=Path of the active sessions registry (ARK_ACTIVE_FILE overrides)"`
	LogDir        string        `yaml:"log_dir,omitempty" toml:"log_dir,omitempty" json:"log_dir,omitempty" jsonschema:"description=Directory of the date-partitioned event log (ARK_LOG_DIR overrides)"`
	MachineConfig string        `yaml:"machine_config,omitempty" toml:"machine_config,omitempty" json:"machine_config,omitempty" jsonschema:"description=Path of the machine identity file (ARK_MACHINE_CONFIG overrides)"`
	Diary         *ToggleConfig `yaml:"diary,omitempty" toml:"diary,omitempty" json:"diary,omitempty" jsonschema:"description=Per-workspace SESSION-LOG.md diary"`
	MemoryBridge  *ToggleConfig `yaml:"memory_bridge,omitempty" toml:"memory_bridge,omitempty" json:"memory_bridge,omitempty" jsonschema:"description=Session-end markers in memory/daily notes"`

	// Extensions captures all other top-level keys, such as "logging".
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`
}

// knownKeys are the top-level keys that are not extensions.
var knownKeys = map[string]bool{
	"registry_file":  true,
	"log_dir":        true,
	"machine_config": true,
	"diary":          true,
	"memory_bridge":  true,
}

// SetDefaults fills in unset values.
func (c *Config) SetDefaults() {
	if c.Diary == nil {
		c.Diary = &ToggleConfig{}
	}
	if c.Diary.Enabled == nil {
		c.Diary.Enabled = boolPtr(true)
	}
	if c.MemoryBridge == nil {
		c.MemoryBridge = &ToggleConfig{}
	}
	if c.MemoryBridge.Enabled == nil {
		c.MemoryBridge.Enabled = boolPtr(true)
	}
}

// DiaryEnabled reports whether stop writes a diary entry.
func (c *Config) DiaryEnabled() bool {
	return c.Diary == nil || c.Diary.Enabled == nil || *c.Diary.Enabled
}

// MemoryBridgeEnabled reports whether stop sweeps into the memory notes.
func (c *Config) MemoryBridgeEnabled() bool {
	return c.MemoryBridge == nil || c.MemoryBridge.Enabled == nil || *c.MemoryBridge.Enabled
}

// UnmarshalExtension decodes the extension section named key into target,
// which must be a pointer. A missing section leaves target untouched.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}

func boolPtr(b bool) *bool {
	return &b
}
