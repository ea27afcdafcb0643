// Package errors provides structured error types for licensetower.
//
// Errors carry a machine-readable [Code] so that the CLI and the HTTP API
// can map failures consistently:
//   - INVALID_*: configuration and input validation failures (fatal)
//   - COMMAND_FAILED / PARSE_ERROR: package-manager tool problems
//   - NOT_FOUND / NETWORK_ERROR: registry lookups
//   - INTERNAL_ERROR: everything unexpected
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidOption, "invalid python version %q", v)
//	if errors.Is(err, errors.ErrCodeInvalidOption) {
//	    // configuration problem
//	}
//
//	err = errors.Wrap(errors.ErrCodeParse, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Configuration and input validation
	ErrCodeInvalidConfig         Code = "INVALID_CONFIG"
	ErrCodeInvalidOption         Code = "INVALID_OPTION"
	ErrCodeInvalidPackageManager Code = "INVALID_PACKAGE_MANAGER"
	ErrCodeInvalidPath           Code = "INVALID_PATH"

	// Package-manager tooling
	ErrCodeCommandFailed Code = "COMMAND_FAILED"
	ErrCodeParse         Code = "PARSE_ERROR"

	// Registries
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeNetwork  Code = "NETWORK_ERROR"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given code. The outermost *Error in the
// chain decides.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from err, or "" if err is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsConfig reports whether err is a configuration error, i.e. one that must
// abort a run instead of degrading to an empty result.
func IsConfig(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidConfig, ErrCodeInvalidOption, ErrCodeInvalidPackageManager, ErrCodeInvalidPath:
		return true
	}
	return false
}

// UserMessage returns the message without the code prefix for *Error
// values, and err.Error() otherwise.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
