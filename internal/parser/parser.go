package parser

import (
	"fmt"
	"io"

	"presidentielle/internal/models"
)

// Opener gives access to bundled files
type Opener interface {
	Open(name string) (io.ReadCloser, error)
}

// Loader reads a results table for a geography level
type Loader interface {
	// Load re-reads and parses the named file on every call
	Load(name string, level models.Level) ([]models.ResultRow, error)
}

// ParseError represents a malformed table, with the location of the
// offending field when there is one
type ParseError struct {
	Stage  string
	File   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("parse error at %s stage in %s line %d column %q value %q: %v",
			e.Stage, e.File, e.Line, e.Column, e.Value, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error at %s stage in %s line %d: %v", e.Stage, e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("parse error at %s stage in %s: %v", e.Stage, e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(stage, file string, line int, err error) *ParseError {
	return &ParseError{
		Stage: stage,
		File:  file,
		Line:  line,
		Err:   err,
	}
}
