package entities

import (
	"fmt"
	"strings"
)

// ValidationResult collects the violations found in one probe manifest.
type ValidationResult struct {
	Errors []ValidationError
	Valid  bool
}

// ValidationError is one violation. Field is a JSON pointer for schema
// violations and a struct namespace for constraint violations.
type ValidationError struct {
	Field   string
	Message string
}

// Add records a violation and marks the result invalid.
func (r *ValidationResult) Add(field, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	r.Valid = false
}

// Err returns nil for a valid result, otherwise one error listing every
// violation.
func (r *ValidationResult) Err() error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "\n- %s: %s", e.Field, e.Message)
	}
	return fmt.Errorf("%s", b.String())
}
