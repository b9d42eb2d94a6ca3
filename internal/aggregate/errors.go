package aggregate

import (
	"errors"
	"fmt"
)

// ErrDuplicateDate is returned when a date key appears more than once in an input.
var ErrDuplicateDate = errors.New("duplicate date")

// ParseError represents a date or numeric field that could not be parsed
type ParseError struct {
	Table  string
	Row    int // 1-based data row, 0 when not tied to a row
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d: parsing %s %q: %v", e.Table, e.Row, e.Column, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: parsing %s %q: %v", e.Table, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError represents an expected column that is absent or holds the wrong type
type SchemaError struct {
	Table  string
	Column string
	Row    int
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d: column %q: %s", e.Table, e.Row, e.Column, e.Reason)
	}
	return fmt.Sprintf("%s: column %q: %s", e.Table, e.Column, e.Reason)
}

// JoinKeyError represents a table without the date column used as join key
type JoinKeyError struct {
	Table  string
	Column string
}

func (e *JoinKeyError) Error() string {
	return fmt.Sprintf("%s: missing join key column %q", e.Table, e.Column)
}
