package task

import (
	"context"
	"errors"
	"fmt"
)

// Body is the callable part of a task. It receives the execution context for
// the current run and the resolved option values, and issues its steps
// through the context.
type Body func(ctx context.Context, ec *ExecutionContext, opts Options) error

// Definition describes a named, invocable unit of work.
type Definition struct {
	Name          string
	Description   string
	Prerequisites []string
	Options       []Option
	Body          Body
}

// Validate checks that the definition can be registered. It replaces
// d.Options with a normalized copy so later lookups see values of the declared
// type; the slice the definition was built with is left untouched.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return errors.New("task name cannot be empty")
	}
	if d.Body == nil {
		return fmt.Errorf("task %q has no body", d.Name)
	}

	seenPrereqs := make(map[string]struct{}, len(d.Prerequisites))
	for _, p := range d.Prerequisites {
		if p == d.Name {
			return &CyclicDependencyError{Path: []string{d.Name, d.Name}}
		}
		if _, dup := seenPrereqs[p]; dup {
			return fmt.Errorf("task %q lists prerequisite %q more than once", d.Name, p)
		}
		seenPrereqs[p] = struct{}{}
	}

	options := append([]Option(nil), d.Options...)
	seenOpts := make(map[string]struct{}, len(options))
	for i := range options {
		opt := &options[i]
		if _, dup := seenOpts[opt.Name]; dup {
			return fmt.Errorf("task %q declares option %q more than once", d.Name, opt.Name)
		}
		seenOpts[opt.Name] = struct{}{}
		if err := opt.normalize(); err != nil {
			return fmt.Errorf("task %q: %w", d.Name, err)
		}
	}
	d.Options = options
	return nil
}

// Option returns the declared option with the given name.
func (d *Definition) Option(name string) (Option, bool) {
	for _, opt := range d.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return Option{}, false
}
