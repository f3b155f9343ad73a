package helm

import (
	"errors"
	"fmt"
)

// ErrReleaseNotFound indicates that no installed release matched the query.
var ErrReleaseNotFound = errors.New("helm release not found")

// ToolError indicates the helm process ran and exited non-zero. It carries
// the exit code and the captured error stream so callers can decide whether
// to retry or fail the enclosing scenario.
type ToolError struct {
	Cmd      string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command %q failed with exit code %d: %s", e.Cmd, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("command %q failed with exit code %d", e.Cmd, e.ExitCode)
}

// ParseError indicates the helm process succeeded but its output was not in
// the expected structured format.
type ParseError struct {
	Cmd string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse output of %q: %v", e.Cmd, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PreconditionError indicates a required setup step failed before the
// primary action could be attempted. The enclosing operation is not
// performed.
type PreconditionError struct {
	Step string
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition %q failed: %v", e.Step, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// UnexpectedError covers any other invocation failure, such as a missing
// helm binary or a permission problem.
type UnexpectedError struct {
	Cmd string
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("command %q could not be run: %v", e.Cmd, e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// IsToolError reports whether err is a non-zero-exit failure.
func IsToolError(err error) bool {
	var te *ToolError
	return errors.As(err, &te)
}

// IsPrecondition reports whether err is a failed setup step.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
