package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
	ErrTimeout      = errors.New("operation timed out")
)

// Error codes carried by AppError.
const (
	CodeConfig     = "CONFIG_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeInvalid    = "INVALID_INPUT"
	CodeDatabase   = "DATABASE_ERROR"
	CodeTimeout    = "TIMEOUT"
	CodeValidation = "VALIDATION_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NotFoundf returns an AppError that satisfies errors.Is(err, ErrNotFound).
func NotFoundf(format string, args ...any) error {
	return NewAppError(CodeNotFound, fmt.Sprintf(format, args...), ErrNotFound)
}

// InvalidInputf returns an AppError that satisfies errors.Is(err, ErrInvalidInput).
func InvalidInputf(format string, args ...any) error {
	return NewAppError(CodeInvalid, fmt.Sprintf(format, args...), ErrInvalidInput)
}

// TimeoutError returns an AppError that satisfies errors.Is(err, ErrTimeout).
func TimeoutError(message string) error {
	return NewAppError(CodeTimeout, message, ErrTimeout)
}

// Code returns the AppError code in err's chain, or "" when there is none.
func Code(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
