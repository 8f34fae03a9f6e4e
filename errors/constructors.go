package errors

import (
	"fmt"
	"os/exec"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *ArkError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid wraps a configuration that could not be read, parsed or validated
func ConfigInvalid(reason string, err error) *ArkError {
	return Wrap(err, ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// SessionNotFound creates a session not found error
func SessionNotFound(sessionID string) *ArkError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("session '%s' not found", sessionID)).
		WithDetail("session_id", sessionID)
}

// InvalidInput creates an invalid input error
func InvalidInput(reason string) *ArkError {
	return New(ErrCodeInvalidInput, reason)
}

// RegistryRead wraps a failure to read the session registry
func RegistryRead(path string, err error) *ArkError {
	return Wrap(err, ErrCodeRegistryRead, "failed to read session registry").
		WithDetail("path", path)
}

// RegistryCorrupt wraps a failure to decode the session registry
func RegistryCorrupt(path string, err error) *ArkError {
	return Wrap(err, ErrCodeRegistryCorrupt, "session registry is not valid JSON").
		WithDetail("path", path)
}

// RegistryWrite wraps a failure to persist the session registry
func RegistryWrite(path string, err error) *ArkError {
	return Wrap(err, ErrCodeRegistryWrite, "failed to write session registry").
		WithDetail("path", path)
}

// EventLogAppend wraps a failure to append to the event log
func EventLogAppend(path string, err error) *ArkError {
	return Wrap(err, ErrCodeEventLogAppend, "failed to append event").
		WithDetail("path", path)
}

// ProbeFailed creates an external probe failure error
func ProbeFailed(probe string, err error) *ArkError {
	arkErr := Wrap(err, ErrCodeProbeFailed, fmt.Sprintf("%s probe failed", probe)).
		WithDetail("probe", probe)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		arkErr = arkErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return arkErr
}
