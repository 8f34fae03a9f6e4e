package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Registry errors
	ErrCodeRegistryRead    ErrorCode = "REGISTRY_READ"
	ErrCodeRegistryWrite   ErrorCode = "REGISTRY_WRITE"
	ErrCodeRegistryCorrupt ErrorCode = "REGISTRY_CORRUPT"

	// Event log errors
	ErrCodeEventLogAppend ErrorCode = "EVENTLOG_APPEND"

	// Collaborator errors
	ErrCodeDiaryWrite  ErrorCode = "DIARY_WRITE"
	ErrCodeMemorySweep ErrorCode = "MEMORY_SWEEP"
	ErrCodeProbeFailed ErrorCode = "PROBE_FAILED"

	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// General errors
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
)

// ArkError represents a structured error with context
type ArkError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ArkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ArkError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *ArkError) WithDetail(key string, value interface{}) *ArkError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *ArkError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new ArkError
func New(code ErrorCode, message string) *ArkError {
	return &ArkError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an ArkError
func Wrap(err error, code ErrorCode, message string) *ArkError {
	return &ArkError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific ArkError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	arkErr, ok := err.(*ArkError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return arkErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	arkErr, ok := err.(*ArkError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return arkErr.Code
}
