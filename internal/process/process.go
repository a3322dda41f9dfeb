// Package process runs external executables synchronously and captures their
// exit code and output. A non-zero exit is a normal result, not an error;
// errors are reserved for executables that cannot be found, time out, or fail
// to start.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrNotFound means the executable could not be located.
	ErrNotFound = errors.New("executable not found")
	// ErrTimeout means the process ran past its timeout and was killed.
	ErrTimeout = errors.New("process timed out")
)

// Command describes one process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory
	Dir string
	// Env entries are appended to the inherited environment
	Env []string
	// Timeout bounds the run; zero means no bound beyond ctx
	Timeout time.Duration
}

// String returns the command line, e.g. "go test ./...".
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the outcome of a process that ran to completion.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the process exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Error is returned when a process could not be run to completion.
type Error struct {
	Command string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner runs one external process and waits for it.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner returns a Runner backed by os/exec. A nil logger uses slog.Default().
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{logger: logger}
}

// Run starts cmd and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	line := cmd.String()

	path, err := exec.LookPath(cmd.Name)
	if err != nil {
		r.logger.Debug("executable not found", "command", line)
		return Result{ExitCode: -1}, &Error{Command: line, Err: fmt.Errorf("%w: %s", ErrNotFound, cmd.Name)}
	}

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}
	// Children that keep the output pipes open must not hold Wait forever
	// after the process is killed.
	c.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	runErr := c.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctx.Err() == context.DeadlineExceeded {
		res.ExitCode = -1
		r.logger.Debug("process timed out", "command", line, "timeout", cmd.Timeout)
		return res, &Error{Command: line, Err: fmt.Errorf("%w after %v", ErrTimeout, cmd.Timeout)}
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		res.ExitCode = 0
	case errors.As(runErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case errors.Is(runErr, exec.ErrNotFound):
		res.ExitCode = -1
		return res, &Error{Command: line, Err: fmt.Errorf("%w: %v", ErrNotFound, runErr)}
	default:
		res.ExitCode = -1
		if ctx.Err() != nil {
			return res, &Error{Command: line, Err: ctx.Err()}
		}
		return res, &Error{Command: line, Err: runErr}
	}

	r.logger.Debug("process finished", "command", line, "exit_code", res.ExitCode, "duration", res.Duration)
	return res, nil
}
