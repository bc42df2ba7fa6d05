package validation

import (
	"fmt"
	"strings"
)

// Messages reported for field violations.
const (
	MsgNotNull  = "must not be null"
	MsgNotBlank = "must not be blank"
)

// FieldError is a single field-level violation.
type FieldError struct {
	// Field is the offending field, qualified by element type when known
	// (e.g. "API_TRIGGER_RESPONSE.status").
	Field string `json:"field"`

	// Message is a human-readable description of the violation.
	Message string `json:"message"`
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Result contains the outcome of validation.
type Result struct {
	Errors []*FieldError `json:"errors,omitempty"`
}

// Valid reports whether no violations were recorded.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Add records a violation.
func (r *Result) Add(field, message string) {
	r.Errors = append(r.Errors, &FieldError{Field: field, Message: message})
}

// Merge combines another result into this one
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
}

// Error implements the error interface so a failed Result can be returned
// directly.
func (r *Result) Error() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns r as an error when it holds violations, nil otherwise.
func (r *Result) Err() error {
	if r.Valid() {
		return nil
	}
	return r
}
