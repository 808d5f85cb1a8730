package csvfile

import (
	"errors"
	"fmt"
)

var (
	// ErrBareQuote is returned when an unexpected quote is found in an unquoted field.
	ErrBareQuote = errors.New("csvfile: bare quote in non-quoted field")
	// ErrUnterminatedQuote is returned when a quoted field is not closed before EOF.
	ErrUnterminatedQuote = errors.New("csvfile: unterminated quoted field")
	// ErrFieldCount is returned when a record contains an unexpected number of fields.
	ErrFieldCount = errors.New("csvfile: wrong number of fields")

	// ErrOpen is returned when the target path cannot be opened in the requested mode.
	ErrOpen = errors.New("csvfile: cannot open file")
	// ErrWrite is returned when the underlying storage rejects a write.
	ErrWrite = errors.New("csvfile: cannot write file")
	// ErrNotFound is returned when reading or querying a path that does not exist.
	ErrNotFound = errors.New("csvfile: file does not exist")
)

// ParseError contains location information for CSV parsing errors.
// Column is zero when the error concerns the record as a whole.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

// Error formats the parse error message with the stored line, column, and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Column == 0 {
		return fmt.Sprintf("csvfile: parse error on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("csvfile: parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Unwrap.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func openError(path string, err error) error {
	return fmt.Errorf("%w %s: %w", ErrOpen, path, err)
}

func writeError(path string, err error) error {
	return fmt.Errorf("%w %s: %w", ErrWrite, path, err)
}

func notFoundError(path string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, path)
}
