package matcher

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a MatchError.
type ErrorKind int

const (
	// ErrMismatch means a value was present but did not satisfy the expected value or directive.
	ErrMismatch ErrorKind = iota
	// ErrNotFound means the expected template had nothing to compare a value with,
	// or a required key was missing from the actual value.
	ErrNotFound
)

func (k ErrorKind) String() string {
	if k == ErrNotFound {
		return "not found"
	}
	return "mismatch"
}

// MatchError is the first violation found while matching a response.
type MatchError struct {
	Kind ErrorKind
	// Key is the mapping key or sequence index of the offending value, empty at the top level.
	Key string
	// Path locates the offending value from the root, e.g. "$.data[0].id".
	Path     string
	Actual   Value
	Expected Value
	Message  string
}

func (e *MatchError) Error() string {
	return e.Message
}

// IsMatchError reports whether err is or wraps a MatchError.
func IsMatchError(err error) bool {
	var matchErr *MatchError
	return errors.As(err, &matchErr)
}

// IsNotFound reports whether err is a MatchError of kind ErrNotFound.
func IsNotFound(err error) bool {
	var matchErr *MatchError
	return errors.As(err, &matchErr) && matchErr.Kind == ErrNotFound
}

func mismatch(key, path string, actual, expected Value) *MatchError {
	var msg string
	if key == "" {
		msg = fmt.Sprintf("actual: %s expected: %s", actual, expected)
	} else {
		msg = fmt.Sprintf("%s is wrong! actual: %s expected: %s", key, actual, expected)
	}
	return &MatchError{Kind: ErrMismatch, Key: key, Path: path, Actual: actual, Expected: expected, Message: msg}
}

// notFoundIn reports a key/value pair of actual that has no counterpart in expected.
func notFoundIn(key, path string, actual, expected Value) *MatchError {
	return &MatchError{
		Kind:     ErrNotFound,
		Key:      key,
		Path:     path,
		Actual:   actual,
		Expected: expected,
		Message:  fmt.Sprintf("have not found `%s=%s` in `%s`", key, actual, expected),
	}
}

// missingFromActual reports an expected key/value pair absent from actual.
func missingFromActual(key, path string, actual, expected Value) *MatchError {
	return &MatchError{
		Kind:     ErrNotFound,
		Key:      key,
		Path:     path,
		Actual:   actual,
		Expected: expected,
		Message:  fmt.Sprintf("have not found `%s=%s` in actual `%s`", key, expected, actual),
	}
}

// containerNotFound reports a whole container actual compared with a non-container expected.
func containerNotFound(path string, actual, expected Value) *MatchError {
	return &MatchError{
		Kind:     ErrNotFound,
		Path:     path,
		Actual:   actual,
		Expected: expected,
		Message:  fmt.Sprintf("have not found `%s` in actual", expected),
	}
}
