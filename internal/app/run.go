package app

import (
	"context"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// Run executes the named task after its prerequisites.
func (a *App) Run(ctx context.Context, name string, overrides map[string]cty.Value) (*task.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "task", name, "overrides", len(overrides))

	report, err := a.runner.Run(ctx, name, overrides)
	if err != nil {
		return report, err
	}

	a.logger.Debug("App.Run method finished.", "tasks", len(report.Tasks))
	return report, nil
}

// Plan returns the order in which the named task and its prerequisites
// would run.
func (a *App) Plan(name string) ([]string, error) {
	return a.runner.Plan(name)
}
