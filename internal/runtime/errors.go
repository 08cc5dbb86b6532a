package runtime

import (
	"errors"
	"fmt"
	"strings"
)

// InvocationError reports a failed runtime command with the runtime's raw
// output attached, so callers can surface it without re-running the command.
type InvocationError struct {
	// Op is the runtime operation that failed (list, create, start, ...).
	Op string

	// Object is the container name the operation targeted, if any.
	Object string

	// Output is the runtime's combined stdout/stderr.
	Output string

	// Err is the underlying process error.
	Err error
}

// Error implements the error interface for InvocationError.
func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("runtime %s failed", e.Op)
	if e.Object != "" {
		msg = fmt.Sprintf("runtime %s failed for %s", e.Op, e.Object)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg = fmt.Sprintf("%s: %s", msg, out)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying process error.
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// IsInvocation checks if an error is or wraps an InvocationError.
func IsInvocation(err error) bool {
	var invErr *InvocationError
	return errors.As(err, &invErr)
}
