package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/envfile"
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/runner"
	"github.com/vk/taskgridgo/internal/task"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	config   *Config
	logger   *slog.Logger
	registry *registry.Registry
	runner   *runner.Runner
}

// NewApp is the constructor for the main application. Task output goes to
// outW; logs go to errW. Explicit modules replace the built-in ones.
//
// The registry is frozen before NewApp returns.
func NewApp(outW, errW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, compiler, err := loader.Load(ctx, cfg.TaskPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load task files: %w", err)
	}
	project := model.Project
	if project == nil {
		project = &config.Project{}
	}
	logger.Debug("Task files loaded.", "files", model.Files, "tasks", len(model.Tasks))

	reg := registry.New(ctx)
	if len(modules) == 0 && builtinEnabled(cfg, project) {
		modules = builtinModules
	}
	if err := reg.RegisterModules(modules...); err != nil {
		return nil, err
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := registerModel(ctx, reg, model, compiler); err != nil {
		return nil, err
	}
	reg.Freeze()
	if err := reg.CheckCycles(); err != nil {
		return nil, err
	}
	logger.Debug("Registry frozen.", "tasks", reg.Len())

	environ := cfg.Environ
	if environ == nil {
		environ = os.Environ()
	}
	env, err := envfile.Build(ctx, envfile.Layers{
		Environ:   environ,
		Dir:       cfg.Dir,
		File:      project.EnvFile,
		Project:   project.Env,
		Overrides: cfg.Env,
	})
	if err != nil {
		return nil, err
	}

	ec := task.NewExecutionContext(task.ContextConfig{
		Dir: cfg.Dir,
		Env: env,
		Settings: task.Settings{
			Package:  project.Package,
			Root:     cfg.Dir,
			BuildDir: project.BuildDir,
			Protos:   project.Protos,
		},
		Process: cfg.Process,
		Fs:      cfg.Fs,
		Stdout:  outW,
		Stderr:  errW,
		Capture: cfg.Capture,
	})

	return &App{
		config:   cfg,
		logger:   logger,
		registry: reg,
		runner:   runner.New(reg, ec),
	}, nil
}

func builtinEnabled(cfg *Config, project *config.Project) bool {
	if cfg.NoBuiltin {
		return false
	}
	return project.Builtin == nil || *project.Builtin
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
