package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryRuntime    Category = "runtime"
	CategoryValidation Category = "validation"
	CategoryStorage    Category = "storage"
)

// Error codes.
const (
	CodeInvalidPattern    = "R001"
	CodeNotConfigured     = "R002"
	CodeNoRouteFound      = "R003"
	CodeDuplicateState    = "R004"
	CodeInvalidStateShape = "R005"
	CodeStorageCorruption = "R006"
	CodeRedirectLoop      = "R007"
	CodeInvalidRoute      = "R008"
	CodeConfigNotFound    = "R009"
	CodeConfigInvalid     = "R010"
)

// Sentinels for errors.Is. Errors created with New match the sentinel that
// shares their code.
var (
	ErrInvalidPattern    = New(CodeInvalidPattern)
	ErrNotConfigured     = New(CodeNotConfigured)
	ErrNoRouteFound      = New(CodeNoRouteFound)
	ErrDuplicateState    = New(CodeDuplicateState)
	ErrInvalidStateShape = New(CodeInvalidStateShape)
	ErrStorageCorruption = New(CodeStorageCorruption)
	ErrRedirectLoop      = New(CodeRedirectLoop)
	ErrInvalidRoute      = New(CodeInvalidRoute)
	ErrConfigNotFound    = New(CodeConfigNotFound)
	ErrConfigInvalid     = New(CodeConfigInvalid)
)

// RouterError is a structured error with a stable code and an optional hint.
type RouterError struct {
	// Code is a unique error identifier (e.g., "R003").
	Code string

	// Category is the error type (config, runtime, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail names the offending input (path, label, key).
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *RouterError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RouterError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a RouterError with the same code.
func (e *RouterError) Is(target error) bool {
	t, ok := target.(*RouterError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithDetail names the offending input.
func (e *RouterError) WithDetail(d string) *RouterError {
	e.Detail = d
	return e
}

// WithDetailf is WithDetail with formatting.
func (e *RouterError) WithDetailf(format string, args ...any) *RouterError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *RouterError) WithSuggestion(s string) *RouterError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *RouterError) Wrap(err error) *RouterError {
	e.Wrapped = err
	return e
}

// New creates a RouterError from a registered error code.
func New(code string) *RouterError {
	template, ok := registry[code]
	if !ok {
		return &RouterError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &RouterError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new RouterError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *RouterError {
	return &RouterError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a RouterError.
func FromError(err error, code string) *RouterError {
	if err == nil {
		return nil
	}
	var re *RouterError
	if stderrors.As(err, &re) {
		return re
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first RouterError in err's chain, or "".
func CodeOf(err error) string {
	var re *RouterError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return ""
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As is errors.As from the standard library.
func As(err error, target any) bool { return stderrors.As(err, target) }
