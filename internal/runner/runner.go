// Package runner executes a requested task and its prerequisites.
//
// A run resolves the prerequisite closure of the requested task, fails fast on
// unknown tasks, cycles and bad option overrides, and then runs each task
// body exactly once, strictly in sequence. The first failing step stops the
// run; nothing is retried and nothing that already completed is undone.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/dag"
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// Runner runs tasks from a registry against one execution context.
type Runner struct {
	registry *registry.Registry
	exec     *task.ExecutionContext
}

// New creates a runner. The execution context is shared, read-only, by every
// task of every run.
func New(reg *registry.Registry, ec *task.ExecutionContext) *Runner {
	return &Runner{registry: reg, exec: ec}
}

// Plan resolves the execution order for name without running anything.
func (r *Runner) Plan(name string) ([]string, error) {
	graph, err := r.closure(name)
	if err != nil {
		return nil, err
	}
	order, err := graph.Resolve(name)
	if err != nil {
		var cycle *dag.CycleError
		if errors.As(err, &cycle) {
			return nil, &task.CyclicDependencyError{Path: cycle.Path}
		}
		return nil, err
	}
	return order, nil
}

// Run executes name after its prerequisites. Overrides apply to name only;
// prerequisites always run with their declared defaults.
//
// The returned report lists every task that started, in order, including the
// one that failed.
func (r *Runner) Run(ctx context.Context, name string, overrides map[string]cty.Value) (*task.Report, error) {
	ctx, logger := ctxlog.With(ctx, "target", name)

	order, err := r.Plan(name)
	if err != nil {
		logger.Error("Could not resolve task.", "error", err)
		return nil, err
	}
	logger.Debug("Resolved execution order.", "order", order)

	resolved := make(map[string]task.Options, len(order))
	for _, taskName := range order {
		def, _ := r.registry.Lookup(taskName)
		var taskOverrides map[string]cty.Value
		if taskName == name {
			taskOverrides = overrides
		}
		opts, err := def.ResolveOptions(taskOverrides)
		if err != nil {
			return nil, err
		}
		resolved[taskName] = opts
	}

	report := &task.Report{}
	for _, taskName := range order {
		if err := ctx.Err(); err != nil {
			logger.Warn("Run cancelled before task started.", "task", taskName)
			return report, err
		}

		def, _ := r.registry.Lookup(taskName)
		rec := &task.TaskRecord{Name: taskName, Options: resolved[taskName], State: task.Running}
		report.Tasks = append(report.Tasks, rec)

		if err := r.runTask(ctx, def, rec); err != nil {
			rec.State = task.Failed
			rec.Err = err
			return report, err
		}
		rec.State = task.Completed
	}

	logger.Debug("Run finished.", "tasks", len(report.Tasks))
	return report, nil
}

func (r *Runner) runTask(ctx context.Context, def *task.Definition, rec *task.TaskRecord) error {
	ctx, logger := ctxlog.With(ctx, "task", def.Name)
	logger.Info("▶️ Starting task")
	start := time.Now()

	err := def.Body(ctx, r.exec.Bind(rec), rec.Options)

	// A body that swallowed a step failure still fails the task.
	if failure := rec.Failure(); failure != nil {
		if err == nil || !errors.Is(err, task.ErrStepFailed) {
			err = failure
		}
	}
	if err != nil {
		var failure *task.StepFailure
		if !errors.As(err, &failure) {
			err = fmt.Errorf("task %q: %w", def.Name, err)
		}
		logger.Error("❌ Task failed", "error", err, "duration", time.Since(start))
		return err
	}

	logger.Info("✅ Finished task", "steps", len(rec.Steps), "duration", time.Since(start))
	return nil
}

// closure builds the prerequisite graph reachable from name. Unknown names
// anywhere in the closure are reported before anything runs.
func (r *Runner) closure(name string) (*dag.Graph, error) {
	if _, ok := r.registry.Lookup(name); !ok {
		return nil, &task.UnknownTaskError{Name: name}
	}

	graph := dag.New()
	graph.AddNode(name)
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		def, _ := r.registry.Lookup(current)

		for _, prereq := range def.Prerequisites {
			if _, ok := r.registry.Lookup(prereq); !ok {
				return nil, &task.UnknownTaskError{Name: prereq, RequiredBy: current}
			}
			if !graph.HasNode(prereq) {
				graph.AddNode(prereq)
				queue = append(queue, prereq)
			}
			if err := graph.AddEdge(prereq, current); err != nil {
				var cycle *dag.CycleError
				if errors.As(err, &cycle) {
					return nil, &task.CyclicDependencyError{Path: cycle.Path}
				}
				return nil, err
			}
		}
	}
	return graph, nil
}
