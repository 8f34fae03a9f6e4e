// Package logging builds the per-component logrus loggers used across ark.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/ark/config"
	"github.com/grovetools/ark/pkg/paths"
	"github.com/grovetools/ark/util/pathutil"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	// stderr is swapped out by tests.
	stderr io.Writer = os.Stderr
	isTTY            = func() bool {
		return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	}
)

// NewLogger returns the logger for component, creating it on first use.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	var logCfg Config
	cfg, _ := config.LoadDefault()
	if cfg != nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}

	entry := newLogger(component, logCfg, time.Now())
	loggers[component] = entry
	return entry
}

// Reset drops all cached loggers.
func Reset() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	loggers = make(map[string]*logrus.Entry)
}

func newLogger(component string, logCfg Config, now time.Time) *logrus.Entry {
	logger := logrus.New()

	levelStr := "info"
	if env := os.Getenv("ARK_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if logCfg.Level != "" {
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("ARK_LOG_CALLER") == "true" || logCfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	switch logCfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: logCfg.Format})
	}

	var writers []io.Writer
	if file := openLogFile(logger, logCfg.File, now); file != nil {
		writers = append(writers, file)
	}
	if shouldLogToStderr(logCfg.Format.StructuredToStderr, logger.GetLevel()) {
		writers = append(writers, stderr)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	return logger.WithField("component", component)
}

// LogFilePath returns where the file sink writes on the day of now.
func LogFilePath(sink FileSinkConfig, now time.Time) string {
	if sink.Path != "" {
		return pathutil.Expand(sink.Path)
	}
	dir := paths.SessionsDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, fmt.Sprintf("ark-%s.log", now.Format("2006-01-02")))
}

func openLogFile(logger *logrus.Logger, sink FileSinkConfig, now time.Time) io.Writer {
	if sink.Disabled {
		return nil
	}
	path := LogFilePath(sink, now)
	if path == "" {
		return nil
	}

	// Only an explicitly configured path is worth a warning.
	explicit := sink.Path != ""
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		if explicit {
			logger.Warnf("Failed to create log directory %s: %v", filepath.Dir(path), err)
		}
		return nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		if explicit {
			logger.Warnf("Failed to open log file %s: %v", path, err)
		}
		return nil
	}
	return file
}

func shouldLogToStderr(mode string, level logrus.Level) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		isDebug := os.Getenv("ARK_DEBUG") == "1" || level >= logrus.DebugLevel
		return isDebug || !isTTY()
	}
}
