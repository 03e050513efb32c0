package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/dag"
	"github.com/vk/taskgridgo/internal/task"
)

// ErrFrozen is returned by Register after Freeze.
var ErrFrozen = errors.New("registry is frozen")

// Module is implemented by anything that contributes tasks to a registry.
type Module interface {
	Register(r *Registry) error
}

// Registry maps task names to definitions, remembering registration order.
type Registry struct {
	mu     sync.RWMutex
	tasks  map[string]*task.Definition
	order  []string
	frozen bool
	logger *slog.Logger
}

// New creates an empty registry that logs through the logger carried by ctx.
func New(ctx context.Context) *Registry {
	return &Registry{
		tasks:  make(map[string]*task.Definition),
		logger: ctxlog.FromContext(ctx),
	}
}

// Register validates def and adds it. A name that is already taken yields a
// *task.DuplicateTaskError and leaves the registry unchanged.
func (r *Registry) Register(def task.Definition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("registering task %q: %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("registering task %q: %w", def.Name, ErrFrozen)
	}
	if _, exists := r.tasks[def.Name]; exists {
		return &task.DuplicateTaskError{Name: def.Name}
	}

	stored := def
	stored.Prerequisites = append([]string(nil), def.Prerequisites...)
	r.tasks[def.Name] = &stored
	r.order = append(r.order, def.Name)
	r.logger.Debug("Registered task.", "name", def.Name, "prerequisites", def.Prerequisites)
	return nil
}

// RegisterModules registers every module in order and stops at the first
// error.
func (r *Registry) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.Register(r); err != nil {
			return err
		}
	}
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// CheckCycles looks for a prerequisite cycle among all registered tasks.
// Prerequisites that are not registered are left for resolution to report.
func (r *Registry) CheckCycles() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph := dag.New()
	for _, name := range r.order {
		graph.AddNode(name)
	}
	for _, name := range r.order {
		for _, prereq := range r.tasks[name].Prerequisites {
			if !graph.HasNode(prereq) {
				continue
			}
			if err := graph.AddEdge(prereq, name); err != nil {
				return cycleError(err)
			}
		}
	}
	return cycleError(graph.DetectCycles())
}

func cycleError(err error) error {
	var cycle *dag.CycleError
	if errors.As(err, &cycle) {
		return &task.CyclicDependencyError{Path: cycle.Path}
	}
	return err
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*task.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tasks[name]
	return def, ok
}

// Names returns the registered task names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Definitions returns the registered definitions in registration order.
func (r *Registry) Definitions() []*task.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]*task.Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tasks[name])
	}
	return defs
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
