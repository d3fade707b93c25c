package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// errOrNil returns e as an error only when it holds failures.
func (e *ValidationError) errOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// Invalid returns a ValidationError with a single failure.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// ValidateRecord checks a Record for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the record is valid.
// Field keys are not checked against the record's template.
func ValidateRecord(r *Record) error {
	var ve ValidationError

	if strings.TrimSpace(r.RecordID) == "" {
		ve.add("uuid", "is required")
	}
	if strings.TrimSpace(r.TemplateIdentity) == "" {
		ve.add("templateUuid", "is required")
	}
	if r.TemplateVersion < 0 {
		ve.add("templateVersion", "must not be negative, got %d", r.TemplateVersion)
	}
	if !r.Kind.IsValid() {
		ve.add("type", "invalid value %q", r.Kind)
	}
	if r.CreatedAt.IsZero() {
		ve.add("created", "is required")
	}
	if r.UpdatedAt.IsZero() {
		ve.add("updated", "is required")
	}
	for _, k := range r.Fields.keys {
		if k == "" {
			ve.add("data", "field names must not be empty")
			break
		}
	}

	return ve.errOrNil()
}
