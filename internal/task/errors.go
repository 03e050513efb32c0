package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateTask    = errors.New("duplicate task")
	ErrUnknownTask      = errors.New("unknown task")
	ErrCyclicDependency = errors.New("cyclic dependency")
	ErrUnknownOption    = errors.New("unknown option")
	ErrInvalidOption    = errors.New("invalid option value")
	ErrStepFailed       = errors.New("step failed")
)

// DuplicateTaskError is returned when a task name is registered twice.
type DuplicateTaskError struct {
	Name string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %q is already registered", e.Name)
}

func (e *DuplicateTaskError) Is(target error) bool { return target == ErrDuplicateTask }

// UnknownTaskError is returned when a requested task, or one of its
// prerequisites, is not registered.
type UnknownTaskError struct {
	Name       string
	RequiredBy string
}

func (e *UnknownTaskError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("task %q (required by %q) is not registered", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("task %q is not registered", e.Name)
}

func (e *UnknownTaskError) Is(target error) bool { return target == ErrUnknownTask }

// CyclicDependencyError reports a prerequisite cycle. Path starts and ends
// with the same task name.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Path, " -> ")
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

// UnknownOptionError is returned when an override names an option the task
// does not declare.
type UnknownOptionError struct {
	Task   string
	Option string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("task %q has no option %q", e.Task, e.Option)
}

func (e *UnknownOptionError) Is(target error) bool { return target == ErrUnknownOption }

// InvalidOptionError is returned when an override cannot be converted to the
// declared option type.
type InvalidOptionError struct {
	Task   string
	Option string
	Want   string
	Err    error
}

func (e *InvalidOptionError) Error() string {
	msg := fmt.Sprintf("task %q: option %q requires a %s value", e.Task, e.Option, e.Want)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidOptionError) Is(target error) bool { return target == ErrInvalidOption }

func (e *InvalidOptionError) Unwrap() error { return e.Err }

// StepFailure reports a step that exited non-zero or could not be started.
// Output holds whatever the step wrote to stdout and stderr.
type StepFailure struct {
	Task     string
	Argv     []string
	ExitCode int
	Output   []byte
	Err      error
}

func (e *StepFailure) Error() string {
	step := strings.Join(e.Argv, " ")
	if e.Err != nil {
		return fmt.Sprintf("task %q: step %q failed (exit code %d): %v", e.Task, step, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("task %q: step %q exited with code %d", e.Task, step, e.ExitCode)
}

func (e *StepFailure) Is(target error) bool { return target == ErrStepFailed }

func (e *StepFailure) Unwrap() error { return e.Err }

// IsResolutionError reports whether err was raised before any step ran:
// registration, lookup, cycle and option errors.
func IsResolutionError(err error) bool {
	return errors.Is(err, ErrDuplicateTask) ||
		errors.Is(err, ErrUnknownTask) ||
		errors.Is(err, ErrCyclicDependency) ||
		errors.Is(err, ErrUnknownOption) ||
		errors.Is(err, ErrInvalidOption)
}
