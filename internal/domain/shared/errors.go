package shared

import (
	"errors"
	"strings"
)

// Error codes carried by DomainError
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeInvalidToken  = "INVALID_TOKEN"
	CodeStore         = "STORE_ERROR"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeAlreadyExists = "ALREADY_EXISTS"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Field is the offending attribute for validation failures, empty otherwise
	Field string `json:"field,omitempty"`
	// Err is the underlying cause, if any
	Err error `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
// This lets callers match on kind: errors.Is(err, shared.ErrNotFound).
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error for a single field.
// message is usually a message key such as "organization:workspace-error-invalid".
func NewValidationError(field, message string) *DomainError {
	return &DomainError{Code: CodeValidation, Field: field, Message: message}
}

// NewNotFoundError creates a not-found error with a descriptive message
func NewNotFoundError(message string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: message}
}

// NewInvalidTokenError creates an invalid-token error
func NewInvalidTokenError(message string) *DomainError {
	return &DomainError{Code: CodeInvalidToken, Message: message}
}

// NewStoreError wraps an underlying storage failure, keeping the cause reachable
func NewStoreError(cause error) *DomainError {
	return &DomainError{Code: CodeStore, Message: "storage failure: " + cause.Error(), Err: cause}
}

// NewUnauthorizedError creates an authentication failure
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{Code: CodeUnauthorized, Message: message}
}

// Common domain errors, used as errors.Is targets
var (
	ErrValidation    = NewDomainError(CodeValidation, "Validation failed")
	ErrNotFound      = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidToken  = NewDomainError(CodeInvalidToken, "Invalid or expired token")
	ErrStore         = NewDomainError(CodeStore, "Storage failure")
	ErrUnauthorized  = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrAlreadyExists = NewDomainError(CodeAlreadyExists, "Resource already exists")
)

// ValidationErrors aggregates several field-level validation failures
type ValidationErrors struct {
	Errors []*DomainError
}

// Add appends a field failure
func (v *ValidationErrors) Add(field, message string) {
	v.Errors = append(v.Errors, NewValidationError(field, message))
}

// Len returns the number of collected failures
func (v *ValidationErrors) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Errors)
}

// Error joins the collected messages
func (v *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		if e.Field != "" {
			msgs = append(msgs, e.Field+": "+e.Message)
			continue
		}
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Is makes every ValidationErrors match ErrValidation
func (v *ValidationErrors) Is(target error) bool {
	var t *DomainError
	return errors.As(target, &t) && t.Code == CodeValidation
}

// As lets errors.As(err, &*DomainError) resolve to the first field failure
func (v *ValidationErrors) As(target any) bool {
	de, ok := target.(**DomainError)
	if !ok || len(v.Errors) == 0 {
		return false
	}
	*de = v.Errors[0]
	return true
}

// OrNil returns nil when nothing was collected, so callers can return it directly
func (v *ValidationErrors) OrNil() error {
	if v.Len() == 0 {
		return nil
	}
	return v
}

// CodeOf returns the DomainError code of err, or "" when err is not a domain error
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
