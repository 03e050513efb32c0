// Package env_vars provides the built-in "env" task, which prints the
// environment every step of a run receives.
package env_vars

import (
	"context"
	"sort"
	"strings"

	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// PrintEnv writes KEY=VALUE lines, sorted by key. The prefix option limits the
// output to matching keys.
func PrintEnv(_ context.Context, ec *task.ExecutionContext, opts task.Options) error {
	prefix := opts.String("prefix")
	env := ec.EnvMap()

	keys := make([]string, 0, len(env))
	for k := range env {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		ec.Printf("%s=%s\n", k, env[k])
	}
	return nil
}

// Register registers the env task.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(task.Definition{
		Name:        "env",
		Description: "Print the environment tasks run with",
		Options: []task.Option{
			task.StringOption("prefix", "", "Only print variables starting with this prefix"),
		},
		Body: PrintEnv,
	})
}
