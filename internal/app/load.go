package app

import (
	"context"
	"fmt"

	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/registry"
)

// registerModel compiles the tasks declared in task files and adds them to
// the registry. A task file task may not reuse the name of a module task.
func registerModel(ctx context.Context, reg *registry.Registry, model *config.Model, compiler config.Compiler) error {
	logger := ctxlog.FromContext(ctx)
	if len(model.Tasks) == 0 {
		logger.Debug("No tasks declared in task files.")
		return nil
	}

	defs, err := compiler.Compile(ctx, model)
	if err != nil {
		return fmt.Errorf("failed to compile task files: %w", err)
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	logger.Debug("Task file tasks registered.", "count", len(defs))
	return nil
}
