// Package config loads ark's optional tool configuration from the XDG
// config directory. A missing file means defaults; a bad file is reported
// and also falls back to defaults.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/ark/errors"
	"github.com/grovetools/ark/pkg/paths"
	"github.com/grovetools/ark/util/pathutil"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are tried in order inside the config directory.
var configNames = []string{
	"ark.yml",
	"ark.yaml",
	"ark.toml",
}

// Default returns a Config with defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.ConfigInvalid("failed to read config file", err).
			WithDetail("path", path)
	}

	cfg, err := LoadFromBytes(data, formatOf(path))
	if err != nil {
		if arkErr, ok := err.(*errors.ArkError); ok {
			return nil, arkErr.WithDetail("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the first config file found in the config directory.
// With no file present it returns defaults and no error. When the file is
// invalid the defaults are returned together with the error.
func LoadDefault() (*Config, error) {
	return LoadFromWithLogger(paths.ConfigDir(), nil)
}

// LoadFromWithLogger is LoadDefault for an explicit directory.
func LoadFromWithLogger(dir string, logger *logrus.Logger) (*Config, error) {
	path, err := FindConfigFile(dir)
	if err != nil {
		return Default(), nil
	}
	if logger != nil {
		logger.WithField("path", path).Debug("Loading ark configuration")
	}

	cfg, err := Load(path)
	if err != nil {
		if logger != nil {
			logger.WithError(err).Warn("Ignoring invalid configuration, using defaults")
		}
		return Default(), err
	}
	return cfg, nil
}

// LoadFromBytes parses, validates and defaults a configuration. format is
// "yaml" or "toml".
func LoadFromBytes(data []byte, format string) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	raw, err := decodeRaw(expanded, format)
	if err != nil {
		return nil, errors.ConfigInvalid("failed to parse configuration", err).
			WithDetail("format", format)
	}

	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.ConfigInvalid("failed to create validator", err)
	}
	if err := validator.Validate(raw); err != nil {
		return nil, errors.ConfigInvalid("schema validation failed", err)
	}

	var cfg Config
	switch format {
	case "toml":
		if err := toml.Unmarshal(expanded, &cfg); err != nil {
			return nil, errors.ConfigInvalid("failed to parse TOML configuration", err)
		}
		cfg.Extensions = extensionsOf(raw)
	default:
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, errors.ConfigInvalid("failed to parse YAML configuration", err)
		}
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// FindConfigFile returns the first ark config file in dir.
func FindConfigFile(dir string) (string, error) {
	if dir == "" {
		return "", errors.ConfigNotFound(dir)
	}
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.ConfigNotFound(dir).WithDetail("searchPath", dir)
}

// RegistryPath resolves the registry file: environment, then config, then
// the default location.
func (c *Config) RegistryPath() string {
	return resolvePath("ARK_ACTIVE_FILE", c.RegistryFile, paths.RegistryFile)
}

// LogDirPath resolves the event log directory.
func (c *Config) LogDirPath() string {
	return resolvePath("ARK_LOG_DIR", c.LogDir, paths.LogDir)
}

// MachineConfigPath resolves the machine identity file.
func (c *Config) MachineConfigPath() string {
	return resolvePath("ARK_MACHINE_CONFIG", c.MachineConfig, paths.MachineConfigFile)
}

func resolvePath(env, configured string, fallback func() string) string {
	if os.Getenv(env) == "" && configured != "" {
		return pathutil.Expand(configured)
	}
	return fallback()
}

// decodeRaw decodes into a generic map with JSON-compatible values, which
// is what both the schema validator and extension lookup expect.
func decodeRaw(data []byte, format string) (map[string]interface{}, error) {
	var raw map[string]interface{}
	var err error
	if format == "toml" {
		err = toml.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return map[string]interface{}{}, nil
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(normalized, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func extensionsOf(raw map[string]interface{}) map[string]interface{} {
	ext := make(map[string]interface{})
	for k, v := range raw {
		if !knownKeys[k] {
			ext[k] = v
		}
	}
	return ext
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}
