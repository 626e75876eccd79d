package curl

import (
	"errors"
	"fmt"
)

// ParseError is returned when a required element cannot be extracted from a
// curl command. Only the URL is required.
type ParseError struct {
	// Element names what could not be extracted, e.g. "URL".
	Element string
	Command string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Could not extract %s from curl command", e.Element)
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
