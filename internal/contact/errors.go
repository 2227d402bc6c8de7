package contact

import (
	"errors"
	"fmt"
)

// ErrSchemaViolation matches every *SchemaViolationError with errors.Is.
var ErrSchemaViolation = errors.New("schema violation")

// SchemaViolationError reports input that does not fit the field catalog:
// an unknown field, or a value whose shape the field cannot hold.
type SchemaViolationError struct {
	// Field is the top-level field name.
	Field string

	// Path locates the offending value inside the field, e.g. "[1].type".
	Path string

	// Reason is a human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *SchemaViolationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("schema violation: %s%s: %s", e.Field, e.Path, e.Reason)
	}
	return fmt.Sprintf("schema violation: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrSchemaViolation) succeed.
func (e *SchemaViolationError) Is(target error) bool {
	return target == ErrSchemaViolation
}

// IsSchemaViolation returns true if err is or wraps a SchemaViolationError.
func IsSchemaViolation(err error) bool {
	var sv *SchemaViolationError
	return errors.As(err, &sv)
}

func violation(field, path, format string, args ...any) *SchemaViolationError {
	return &SchemaViolationError{
		Field:  field,
		Path:   path,
		Reason: fmt.Sprintf(format, args...),
	}
}
