package apiclient

import (
	"fmt"
	"strings"

	"apiauto/internal/matcher"
)

// VerifyResponseCode checks the status code of resp.
func VerifyResponseCode(resp *Response, code int) error {
	if resp == nil {
		return &AssertionError{Message: "response is empty"}
	}
	if resp.StatusCode != code {
		return &AssertionError{
			Message: fmt.Sprintf("Expected: %d\nActual: %d.\nRESPONSE:\n%s", code, resp.StatusCode, resp.String()),
		}
	}
	return nil
}

// VerifyResponse checks the status code and requires the body to equal
// expected exactly, ignoring key order.
func VerifyResponse(resp *Response, expected interface{}, code int) error {
	if err := VerifyResponseCode(resp, code); err != nil {
		return err
	}
	actual, want, err := decodeBoth(resp, expected)
	if err != nil {
		return err
	}
	if !actual.Equal(want) {
		return &AssertionError{
			Message: fmt.Sprintf("response does not match\nactual: %s\nexpected: %s", actual, want),
		}
	}
	return nil
}

// VerifyResponseTemplate checks the status code and matches the body against
// the expected template with the response matcher, so directives such as
// "skip" and "match_regex(...)" apply.
func VerifyResponseTemplate(resp *Response, expected interface{}, code int, opts ...matcher.Option) error {
	if err := VerifyResponseCode(resp, code); err != nil {
		return err
	}
	actual, want, err := decodeBoth(resp, expected)
	if err != nil {
		return err
	}
	if err := matcher.New(opts...).MatchValues(actual, want); err != nil {
		return &AssertionError{Message: err.Error(), Cause: err}
	}
	return nil
}

// VerifyBodyContains checks that the raw body contains every fragment.
func VerifyBodyContains(resp *Response, fragments ...string) error {
	if resp == nil {
		return &AssertionError{Message: "response is empty"}
	}
	body := resp.String()
	for _, f := range fragments {
		if !strings.Contains(body, f) {
			return &AssertionError{Message: fmt.Sprintf("response does not contain %q\nRESPONSE:\n%s", f, body)}
		}
	}
	return nil
}

func decodeBoth(resp *Response, expected interface{}) (matcher.Value, matcher.Value, error) {
	actual, err := resp.Value()
	if err != nil {
		return matcher.Null(), matcher.Null(), &AssertionError{Message: err.Error(), Cause: err}
	}
	want, err := matcher.From(expected)
	if err != nil {
		return matcher.Null(), matcher.Null(), fmt.Errorf("invalid expected body: %w", err)
	}
	return actual, want, nil
}
