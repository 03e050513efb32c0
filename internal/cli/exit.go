package cli

import (
	"context"
	"errors"

	"github.com/vk/taskgridgo/internal/task"
)

const (
	// ExitCodeFailure is used for errors that carry no better code.
	ExitCodeFailure = 1
	// ExitCodeUsage is used for bad flags, unknown tasks and registration
	// problems.
	ExitCodeUsage = 2
	// ExitCodeInterrupted is used when the run was cancelled by a signal.
	ExitCodeInterrupted = 130
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// usageError builds an ExitError with the usage exit code.
func usageError(err error) *ExitError {
	return &ExitError{Code: ExitCodeUsage, Message: err.Error()}
}

// exitErrorFor maps err to the process exit code: a failed step's own exit
// code, ExitCodeUsage for anything detected before a step ran, and
// ExitCodeFailure otherwise.
func exitErrorFor(err error) *ExitError {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	var failure *task.StepFailure
	if errors.As(err, &failure) {
		code := failure.ExitCode
		if code == 0 {
			code = ExitCodeFailure
		}
		return &ExitError{Code: code, Message: err.Error()}
	}
	if task.IsResolutionError(err) {
		return usageError(err)
	}
	if errors.Is(err, context.Canceled) {
		return &ExitError{Code: ExitCodeInterrupted, Message: err.Error()}
	}
	return &ExitError{Code: ExitCodeFailure, Message: err.Error()}
}
