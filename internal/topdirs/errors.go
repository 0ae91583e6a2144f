package topdirs

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// ErrInvalidRoot is returned when the root does not exist or is not a
// directory. No traversal is started in that case.
var ErrInvalidRoot = errors.New("invalid root directory")

// FaultError reports an unexpected failure inside a traversal task.
type FaultError struct {
	// Path is the directory whose task failed.
	Path string
	// Cause is the recovered panic value.
	Cause any
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("analyzing %q: %v", e.Path, e.Cause)
}

// Unwrap exposes errdefs.ErrInternal and, when the cause is an error, the cause.
func (e *FaultError) Unwrap() []error {
	if err, ok := e.Cause.(error); ok {
		return []error{errdefs.ErrInternal, err}
	}

	return []error{errdefs.ErrInternal}
}

// recoverFault turns a panic in the current goroutine into a *FaultError.
func recoverFault(path string, err *error) {
	if r := recover(); r != nil {
		*err = &FaultError{Path: path, Cause: r}
	}
}
