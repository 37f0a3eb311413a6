package mapper

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUndefinedValue is returned when a document has no value for a numeric
// field and the field has no null_value to fall back to.
var ErrUndefinedValue = errors.New("undefined numeric value")

// ParsingError reports an invalid field mapping. It is raised while a schema
// is built and never recovered locally.
type ParsingError struct {
	Msg string
}

func newParsingError(format string, args ...interface{}) *ParsingError {
	return &ParsingError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ParsingError) Error() string { return e.Msg }

// CoercionError reports a mapping parameter whose value has the wrong type.
type CoercionError struct {
	Field string
	Key   string
	Value interface{}
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("failed to parse [%s] of field [%s]: cannot coerce [%v]: %v", e.Key, e.Field, e.Value, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// MergeConflictError lists every incompatibility found while merging two
// definitions of the same field.
type MergeConflictError struct {
	Field     string
	Conflicts []string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("Mapper for [%s] conflicts with existing mapping:\n[%s]", e.Field, strings.Join(e.Conflicts, ", "))
}

// AnalysisError wraps a failure of the tokenization capability itself.
type AnalysisError struct {
	Field string
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("failed to analyze field [%s]: %v", e.Field, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// TokenFormatError describes the token that invalidated a sum.
type TokenFormatError struct {
	Token string
	Err   error
}

func (e *TokenFormatError) Error() string {
	return fmt.Sprintf("token [%s] is not an integer: %v", e.Token, e.Err)
}

func (e *TokenFormatError) Unwrap() error { return e.Err }
