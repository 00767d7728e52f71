// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid or missing tool arguments
//   - Policy errors (200-299): Requests refused by local policy (read-only mode)
//   - Market data errors (300-399): Quotes, bars, or chains the gateway cannot serve
//   - Connectivity errors (400-499): The gateway could not be reached at all
//   - Upstream rejection errors (500-599): The gateway answered and refused
//
// Each category maps to one Kind, the stable label reported to MCP clients.
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidParameter, "quantity must be positive")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeContractNotFound, "no contract found for symbol %s", symbol)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeConnectionFailed, "gateway unreachable", originalErr)
//
//	// Check error code or kind
//	if errors.HasCode(err, errors.ErrCodeNoMarketData) { ... }
//	if errors.KindOf(err) == errors.KindUpstreamUnavailable { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// KindOf classifies an error by the category of its code. Errors that do
// not carry an ErrorCode classify as KindInternal.
func KindOf(err error) Kind {
	return GetCode(err).Kind()
}

// MessageOf renders the human-readable message chain of an error without
// the numeric code prefix. This is the text reported to MCP clients.
func MessageOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, causeText(e.Cause))
	}

	return e.Message
}

// causeText strips the code prefix from nested *Error causes so chained
// messages read as plain prose.
func causeText(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return MessageOf(e)
	}

	return err.Error()
}
