package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command describes a single external tool invocation.
type Command struct {
	// Name is the binary to run, resolved through PATH.
	Name string

	// Args are the command arguments, one per element.
	Args []string

	// Env holds additional KEY=VALUE pairs appended to the inherited
	// process environment.
	Env []string

	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// String returns the command line in a form suitable for diagnostics.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the captured output of a completed invocation.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// ExitError indicates the external process ran and exited non-zero.
type ExitError struct {
	Cmd    string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command %q failed with exit code %d: %s", e.Cmd, e.Code, e.Stderr)
	}
	return fmt.Sprintf("command %q failed with exit code %d", e.Cmd, e.Code)
}

// Runner executes external commands and returns their captured output.
// Implementations must block until the process exits.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands with os/exec, capturing stdout and stderr
// separately.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run executes the command and blocks until it exits. A non-zero exit is
// reported as *ExitError alongside the captured output; any other failure
// (binary missing, permission denied) is returned as-is.
func (ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Dir = cmd.Dir

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, &ExitError{
				Cmd:    cmd.String(),
				Code:   exitErr.ExitCode(),
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}
		return res, err
	}

	return res, nil
}
