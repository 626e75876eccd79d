package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// StatusError is returned for responses that abort a scenario outright:
// 401, 500 and 504.
type StatusError struct {
	StatusCode int
	Method     string
	URL        string
	At         time.Time
}

func (e *StatusError) Error() string {
	text := fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.StatusCode == http.StatusUnauthorized {
		return fmt.Sprintf("%s. %s", text, e.At.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s (%s %s)", text, e.Method, e.URL)
}

// IsStatusError checks whether err is a *StatusError.
func IsStatusError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}

// IsUnauthorized checks whether err reports a 401 response.
func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized
}

// AssertionError is returned when a response does not meet an expectation.
type AssertionError struct {
	Message string
	// Cause is the matcher error for body mismatches.
	Cause error
}

func (e *AssertionError) Error() string { return e.Message }

func (e *AssertionError) Unwrap() error { return e.Cause }

// IsAssertionError checks whether err is an *AssertionError.
func IsAssertionError(err error) bool {
	var assertErr *AssertionError
	return errors.As(err, &assertErr)
}
