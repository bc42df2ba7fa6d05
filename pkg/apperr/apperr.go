// Package apperr defines the errors jetmock surfaces to HTTP clients.
//
// Every surfaced error carries a correlation id, a machine-readable code and
// the HTTP status of its kind. Field-level validation checks ride along on
// VALIDATION errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jetmock/jetmock/pkg/flowstore"
	"github.com/jetmock/jetmock/pkg/validation"
)

// Error codes.
const (
	CodeValidation      = "VALIDATION_EXCEPTION"
	CodeMockNotFound    = "MOCK_NOT_FOUND"
	CodeGroupNotFound   = "GROUP_NOT_FOUND"
	CodeGroupExists     = "GROUP_ALREADY_EXISTS"
	CodeBrokerNotFound  = "KAFKA_BROKER_NOT_FOUND"
	CodeRequestNotFound = "REQUEST_NOT_FOUND"
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnexpected      = "UNEXPECTED_ERROR"
)

// Check is one field-level violation.
type Check struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is an error with an HTTP status, a code and a correlation id.
type Error struct {
	UUID    string  `json:"uuid"`
	Status  int     `json:"-"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Checks  []Check `json:"checks,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status code for this error.
func (e *Error) StatusCode() int {
	return e.Status
}

func newError(status int, code, message string, cause error) *Error {
	return &Error{
		UUID:    uuid.NewString(),
		Status:  status,
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Validation returns a 400 VALIDATION_EXCEPTION error with checks attached.
func Validation(checks ...Check) *Error {
	e := newError(http.StatusBadRequest, CodeValidation, "Validation failed", nil)
	e.Checks = checks
	return e
}

// BadRequest returns a 400 error for malformed input.
func BadRequest(message string, cause error) *Error {
	return newError(http.StatusBadRequest, CodeBadRequest, message, cause)
}

// NotFound returns a 404 error with the given code.
func NotFound(code, message string) *Error {
	return newError(http.StatusNotFound, code, message, nil)
}

// AlreadyExists returns a 400 error with the given code.
func AlreadyExists(code, message string) *Error {
	return newError(http.StatusBadRequest, code, message, nil)
}

// Unexpected returns a 500 UNEXPECTED_ERROR wrapping cause.
func Unexpected(cause error) *Error {
	return newError(http.StatusInternalServerError, CodeUnexpected, "Unexpected error", cause)
}

// From folds any error into an *Error. Known sentinel errors map to their
// kinds; everything else becomes UNEXPECTED.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var result *validation.Result
	if errors.As(err, &result) {
		checks := make([]Check, 0, len(result.Errors))
		for _, fe := range result.Errors {
			checks = append(checks, Check{Field: fe.Field, Message: fe.Message})
		}
		return Validation(checks...)
	}

	switch {
	case errors.Is(err, flowstore.ErrFlowNotFound):
		return wrap(NotFound(CodeMockNotFound, "Mock not found"), err)
	case errors.Is(err, flowstore.ErrGroupNotFound):
		return wrap(NotFound(CodeGroupNotFound, "Group not found"), err)
	case errors.Is(err, flowstore.ErrGroupExists):
		return wrap(AlreadyExists(CodeGroupExists, "Group already exists"), err)
	case errors.Is(err, flowstore.ErrBrokerNotFound):
		return wrap(NotFound(CodeBrokerNotFound, "Kafka broker not found"), err)
	}
	return Unexpected(err)
}

func wrap(e *Error, cause error) *Error {
	e.cause = cause
	return e
}
