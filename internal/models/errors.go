package models

import "fmt"

// InvalidSelectionError reports a dashboard selection that maps to no
// known column, table or candidate view
type InvalidSelectionError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidSelectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid selection %s=%q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid selection %s=%q", e.Field, e.Value)
}

func (e *InvalidSelectionError) Unwrap() error {
	return e.Err
}

// NewInvalidSelectionError creates a new InvalidSelectionError
func NewInvalidSelectionError(field, value string, err error) *InvalidSelectionError {
	return &InvalidSelectionError{Field: field, Value: value, Err: err}
}
