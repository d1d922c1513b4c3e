package utils

import (
	"errors"
	"fmt"
	"strings"

	. "certgen/internal/models"
)

var (
	ErrEncodingExhausted = errors.New("roster encoding exhausted")
	ErrSchema            = errors.New("roster schema mismatch")
)

// EncodingExhaustedError means no candidate encoding produced a usable header.
type EncodingExhaustedError struct {
	Path  string
	Tried []string
}

func (e *EncodingExhaustedError) Error() string {
	return "Unable to read the CSV file. The file might be corrupted or use an unsupported encoding."
}

func (e *EncodingExhaustedError) Is(target error) bool {
	return target == ErrEncodingExhausted
}

// SchemaError means the header decoded but had the wrong number of columns.
type SchemaError struct {
	Header []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf(
		"Expected %d columns (%s), but found %d: %s",
		len(RosterColumns),
		strings.Join(RosterColumns, ", "),
		len(e.Header),
		strings.Join(e.Header, ", "),
	)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// UnexpectedError wraps any non-structural failure with the stage it happened in.
type UnexpectedError struct {
	Stage string
	Err   error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// IsStructural reports whether err aborted a run before any artifact was written
// because of roster content rather than an I/O or rendering failure.
func IsStructural(err error) bool {
	return errors.Is(err, ErrEncodingExhausted) || errors.Is(err, ErrSchema)
}
