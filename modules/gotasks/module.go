// Package gotasks provides the built-in developer tasks of a Go/gRPC service
// repository: formatting, linting, testing, proto compilation and cleanup.
// Tool invocations go through pre-commit, protoc, npx and the go command.
package gotasks

import (
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/task"
)

// DefaultBuildDir is removed by clean-build when the project does not name a
// build directory.
const DefaultBuildDir = "build"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Definitions returns the tasks of the module in registration order.
func (m *Module) Definitions() []task.Definition {
	return []task.Definition{
		{Name: "format", Description: "Format code", Body: Format},
		{Name: "embed", Description: "Embeds the examples", Body: Embed},
		{
			Name:        "test",
			Description: "Run tests",
			Options: []task.Option{
				task.BoolOption("race", true, "Enable the race detector"),
			},
			Body: Test,
		},
		{Name: "cyclo", Description: "Check code complexity", Body: Cyclo},
		{Name: "lint", Description: "Lint code", Body: Lint},
		{Name: "install-hooks", Description: "Install pre-commit hooks", Body: InstallHooks},
		{Name: "pre-commit", Description: "Run all pre-commit checks", Body: PreCommit},
		{Name: "build", Description: "Build the project", Body: Build},
		{Name: "compile-protos", Description: "Compile proto files", Body: CompileProtos},
		{Name: "clean-build", Description: "Clean up files from package building", Body: CleanBuild},
		{Name: "clean-coverage", Description: "Clean up files from coverage measurement", Body: CleanCoverage},
		{
			Name:          "clean",
			Description:   "Runs all clean sub-tasks",
			Prerequisites: []string{"clean-build", "clean-coverage"},
			Body:          Clean,
		},
	}
}

// Register registers every task of the module.
func (m *Module) Register(r *registry.Registry) error {
	for _, def := range m.Definitions() {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
