package importer

import (
	"errors"
	"fmt"
)

// ParseError wraps a specific error with context about where it occurred.
type ParseError struct {
	Line   int
	Record []string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %v (record: %v)", e.Line, e.Err, e.Record)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Define specific error types for better error handling
var (
	ErrUnsupportedFormat = fmt.Errorf("unsupported file format")
	ErrEmptySheet        = fmt.Errorf("worksheet is empty")
	ErrMultipleSheets    = fmt.Errorf("multiple worksheets found; upload a file with a single sheet")
	ErrMissingColumn     = fmt.Errorf("missing required column")
	ErrMissingField      = fmt.Errorf("missing required field")
	ErrInvalidDate       = fmt.Errorf("invalid date")
	ErrInvalidHours      = fmt.Errorf("invalid hours")
)

// errorType maps an error to the importer_errors_total label.
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrInvalidHours):
		return "invalid_hours"
	default:
		return "other"
	}
}
