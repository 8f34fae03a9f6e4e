package logging

// Config is the "logging" section of ark.yml.
type Config struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	// ARK_LOG_LEVEL takes precedence.
	Level string `yaml:"level"`

	// ReportCaller adds file, line and function to each entry.
	// ARK_LOG_CALLER=true enables it as well.
	ReportCaller bool `yaml:"report_caller"`

	File   FileSinkConfig `yaml:"file"`
	Format FormatConfig   `yaml:"format"`
}

// FileSinkConfig configures the log file. Without a path, logs go to
// ark-<date>.log in the sessions directory.
type FileSinkConfig struct {
	// Disabled turns the file sink off.
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
}

// FormatConfig controls the log output format.
type FormatConfig struct {
	// Preset is "default" (rich text), "simple" (level and message) or "json".
	Preset           string `yaml:"preset"`
	DisableTimestamp bool   `yaml:"disable_timestamp"`
	DisableComponent bool   `yaml:"disable_component"`
	// StructuredToStderr is "auto" (default), "always" or "never". In auto
	// mode stderr gets logs when debugging or when it is not a terminal.
	StructuredToStderr string `yaml:"structured_to_stderr"`
}
