package shared

import (
	"fmt"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound         = NewDomainError("NOT_FOUND", "Resource not found")
	ErrPageNotFound     = NewDomainError("PAGE_NOT_FOUND", "Requested page is out of range")
	ErrPermissionDenied = NewDomainError("PERMISSION_DENIED", "Not authorized to perform this action")
	ErrInvalidInput     = NewDomainError("INVALID_INPUT", "Invalid input provided")
)

// ConfigError reports every missing or invalid configuration key at once,
// before any query has run.
type ConfigError struct {
	Missing []string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: missing or invalid keys: %s", strings.Join(e.Missing, ", "))
}

// NewConfigError creates a ConfigError for the given keys
func NewConfigError(missing ...string) *ConfigError {
	return &ConfigError{Missing: missing}
}

// FieldError reports a reference to a field the record source does not know
type FieldError struct {
	Field string
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Field)
}

// NewFieldError creates a FieldError for the given field name
func NewFieldError(field string) *FieldError {
	return &FieldError{Field: field}
}
