package generator

import (
	"errors"
	"fmt"
)

// EmitError wraps a failure to render one of the built-in templates.
// Well-formed requests never produce one.
type EmitError struct {
	Template string
	Err      error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("failed to render %s template: %v", e.Template, e.Err)
}

func (e *EmitError) Unwrap() error {
	return e.Err
}

// IsEmitError reports whether err is or wraps an EmitError.
func IsEmitError(err error) bool {
	var emitErr *EmitError
	return errors.As(err, &emitErr)
}
