package config

import (
	"context"

	"github.com/vk/taskgridgo/internal/task"
)

// Loader reads task files from the given paths (files or directories) and
// translates them into the model. Paths that do not exist are skipped.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, Compiler, error)
}

// Compiler turns the declarative tasks of a model into registrable
// definitions whose bodies interpret the declared steps.
type Compiler interface {
	Compile(ctx context.Context, model *Model) ([]task.Definition, error)
}
