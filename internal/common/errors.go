package common

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Callers match with errors.Is; none of these are
// retried by the core logic.
var (
	ErrUnsupportedDocument = errors.New("unsupported document")
	ErrExtractionTimeout   = errors.New("extraction deadline exceeded")
	ErrExtractionParse     = errors.New("extraction response unparseable")
	ErrExtractionProvider  = errors.New("extraction provider error")
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternal            = errors.New("internal error")
)

// AppError represents application-specific errors.
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

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
