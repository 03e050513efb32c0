// Package procexec is the subprocess contract of the task runner. Task steps
// never spawn processes directly: they describe a Command and hand it to a
// Process, which keeps the runner testable without real binaries.
package procexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// ExitCodeNotStarted is reported when a command could not be started, for
// example because the binary is missing. It matches the shell convention.
const ExitCodeNotStarted = 127

// DefaultGracePeriod is how long a child is given to exit after an interrupt
// before it is killed.
const DefaultGracePeriod = 5 * time.Second

// ErrNotStarted wraps failures that happen before the child process runs.
var ErrNotStarted = errors.New("process not started")

// Command is a single structured invocation. Argv[0] is the program; no shell
// is involved.
type Command struct {
	Argv   []string
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	ExitCode int
}

// Process runs commands.
type Process interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Func adapts a plain function to the Process interface.
type Func func(ctx context.Context, cmd Command) (Result, error)

// Run implements Process.
func (f Func) Run(ctx context.Context, cmd Command) (Result, error) {
	return f(ctx, cmd)
}

// OS runs commands as real child processes.
type OS struct {
	// GracePeriod bounds the wait between the interrupt sent on cancellation
	// and the final kill. Zero means DefaultGracePeriod.
	GracePeriod time.Duration
}

// NewOS returns a Process backed by os/exec.
func NewOS() *OS {
	return &OS{GracePeriod: DefaultGracePeriod}
}

// Run starts the command and blocks until it exits. A non-zero exit is not an
// error: it is reported through Result.ExitCode. Cancelling ctx forwards an
// interrupt to the child.
func (p *OS) Run(ctx context.Context, c Command) (Result, error) {
	if len(c.Argv) == 0 || c.Argv[0] == "" {
		return Result{ExitCode: ExitCodeNotStarted}, fmt.Errorf("%w: empty command", ErrNotStarted)
	}

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = nil
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = p.GracePeriod
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultGracePeriod
	}

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: ExitCodeNotStarted}, fmt.Errorf("%w: %s: %w", ErrNotStarted, c.Argv[0], err)
	}

	err := cmd.Wait()
	if err == nil {
		return Result{ExitCode: 0}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if ctx.Err() != nil {
			// Killed by our own interrupt; ExitCode is -1 for signalled children.
			if code < 0 {
				code = 130
			}
			return Result{ExitCode: code}, fmt.Errorf("%s interrupted: %w", c.Argv[0], ctx.Err())
		}
		return Result{ExitCode: code}, nil
	}
	if ctx.Err() != nil {
		// The child handled the interrupt and exited cleanly.
		return Result{ExitCode: 130}, fmt.Errorf("%s interrupted: %w", c.Argv[0], ctx.Err())
	}
	return Result{ExitCode: 1}, fmt.Errorf("waiting for %s: %w", c.Argv[0], err)
}
