package pipeline

import (
	"fmt"
	"strings"
)

// FormatError reports an upload that is not a readable tabular file, either
// by extension or because its bytes cannot be parsed. The message is
// surfaced verbatim to the end user.
type FormatError struct {
	Filename string
	Err      error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s could not be read as a .csv file: %v", e.Filename, e.Err)
	}
	return fmt.Sprintf("%s is not a valid .csv file", e.Filename)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// SchemaError reports required columns missing from an upload after
// case-insensitive, whitespace-trimmed comparison.
type SchemaError struct {
	Filename string
	Missing  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ParseError reports a timestamp field that does not match its expected
// textual format. A single bad row fails the entire run.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s value %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
