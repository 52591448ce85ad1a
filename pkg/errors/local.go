package errors

import (
	"fmt"
	"strings"
)

// NotFoundError is an unknown unit, record or table row.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError returns a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError is rejected input: a flag, a query parameter or a
// payload field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError returns a ValidationError for field.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError is a missing or inconsistent setting. It reads as
// ErrUnavailable so commands and the server fail fast on it.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Component != "" {
		b.WriteString(" " + e.Component)
	}
	b.WriteString(": " + e.Message)
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrUnavailable }

// NewConfigError returns a ConfigError for component.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError is a payload or value that could not be decoded.
type ParseError struct {
	// Format is what was being decoded: "json", "yaml", "date".
	Format  string
	Source  string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("decode %s: %s", e.Format, e.Message)
	}
	return fmt.Sprintf("decode %s from %s: %s", e.Format, e.Source, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError returns a ParseError.
func NewParseError(format, source, message string, err error) *ParseError {
	return &ParseError{Format: format, Source: source, Message: message, Err: err}
}

// IOError is a failed local read or write, such as an export file.
type IOError struct {
	Operation string
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError returns an IOError.
func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// ResourceError is a failed store call against a table, or against one
// record when ID is set.
type ResourceError struct {
	Operation string
	Resource  string
	ID        string
	Err       error
}

func (e *ResourceError) Error() string {
	target := e.Resource
	if e.ID != "" {
		target += "/" + e.ID
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, target, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// NewResourceError returns a ResourceError.
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Err: err}
}

// SyncRowError is one failed write during a table sync. The sync carries on
// with the remaining rows.
type SyncRowError struct {
	Table string
	// Op is "create", "update" or "delete".
	Op       string
	Key      string
	RecordID string
	Err      error
}

func (e *SyncRowError) Error() string {
	row := fmt.Sprintf("%q", e.Key)
	if e.RecordID != "" {
		row += " (" + e.RecordID + ")"
	}
	return fmt.Sprintf("%s %s row %s: %v", e.Table, e.Op, row, e.Err)
}

func (e *SyncRowError) Unwrap() error { return e.Err }
