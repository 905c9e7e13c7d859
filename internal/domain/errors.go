package domain

import "fmt"

// ValidationError reports a required field missing from a factory input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason == "" {
		return fmt.Sprintf("domain: field %q is required", e.Field)
	}
	return fmt.Sprintf("domain: invalid field %q: %s", e.Field, e.Reason)
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field}
}
