package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for structural problems. They are wrapped with the class,
// property or method name involved.
var (
	ErrUnknownProperty   = errors.New("unknown property")
	ErrUnknownMethod     = errors.New("unknown method")
	ErrUnknownClass      = errors.New("unknown class")
	ErrDuplicateClass    = errors.New("class already registered")
	ErrInvalidDefinition = errors.New("invalid class definition")
	ErrCyclicReference   = errors.New("cyclic object reference")
)

// ValidationError is a rejected property value. It renders as
// "<property>: <message>".
type ValidationError struct {
	Property string
	Message  string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Property, e.Message)
}

// NewValidationError creates a ValidationError
func NewValidationError(property, message string) ValidationError {
	return ValidationError{Property: property, Message: message}
}

// ValidationErrors collects every validation failure of a record, keyed by
// property.
type ValidationErrors struct {
	Fields map[string][]string `json:"fields"`
}

// NewValidationErrors creates a new ValidationErrors instance
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Fields: make(map[string][]string),
	}
}

// Add adds a validation error for a specific field
func (ve *ValidationErrors) Add(field, message string) {
	if ve.Fields == nil {
		ve.Fields = make(map[string][]string)
	}
	ve.Fields[field] = append(ve.Fields[field], message)
}

// AddError records err under field, unwrapping a ValidationError when present.
func (ve *ValidationErrors) AddError(field string, err error) {
	var verr ValidationError
	if errors.As(err, &verr) {
		ve.Add(verr.Property, verr.Message)
		return
	}
	ve.Add(field, err.Error())
}

// HasErrors returns true if there are any validation errors
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Fields) > 0
}

// Count returns the total number of validation errors across all fields
func (ve *ValidationErrors) Count() int {
	count := 0
	for _, messages := range ve.Fields {
		count += len(messages)
	}
	return count
}

// Error implements the error interface
func (ve *ValidationErrors) Error() string {
	if !ve.HasErrors() {
		return "validation failed"
	}

	fields := make([]string, 0, len(ve.Fields))
	for field := range ve.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var messages []string
	for _, field := range fields {
		for _, msg := range ve.Fields[field] {
			messages = append(messages, fmt.Sprintf("  - %s: %s", field, msg))
		}
	}

	if len(messages) == 1 {
		return fmt.Sprintf("validation failed: %s", strings.TrimPrefix(messages[0], "  - "))
	}

	return fmt.Sprintf("validation failed:\n%s", strings.Join(messages, "\n"))
}

// MarshalJSON implements json.Marshaler for custom JSON serialization
func (ve *ValidationErrors) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error  string              `json:"error"`
		Fields map[string][]string `json:"fields"`
	}{
		Error:  "validation_failed",
		Fields: ve.Fields,
	})
}
