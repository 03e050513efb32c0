package gotasks

import (
	"context"
	"path"
	"path/filepath"

	"github.com/vk/taskgridgo/internal/task"
)

func preCommit(ctx context.Context, ec *task.ExecutionContext, hooks ...string) error {
	for _, hook := range hooks {
		if err := ec.Exec(ctx, "pre-commit", "run", hook, "--all-files"); err != nil {
			return err
		}
	}
	return nil
}

// Format runs the go-fmt and go-imports hooks.
func Format(ctx context.Context, ec *task.ExecutionContext, _ task.Options) error {
	return preCommit(ctx, ec, "go-fmt", "go-imports")
}

// Embed refreshes the code samples embedded in the README.
func Embed(ctx context.Context, ec *task.ExecutionContext, _ task.Options) error {
	readme := filepath.Join(ec.Settings().Root, "README.md")
	return ec.Exec(ctx, "npx", "embedme", readme)
}

// TestArgv is the go test invocation, with or without the race detector.
func TestArgv(race bool) []string {
	argv := []string{"go", "test"}
	if race {
		argv = append(argv, "-race")
	}
	return append(argv,
		"-coverpkg=all",
		"-coverprofile=coverage.txt",
		"-covermode=atomic",
		"./...",
	)
}

// Test runs the test suite with coverage.
func Test(ctx context.Context, ec *task.ExecutionContext, opts task.Options) error {
	return ec.Exec(ctx, TestArgv(opts.Bool("race"))...)
}

// Cyclo checks code complexity.
func Cyclo(ctx context.Context, ec *task.ExecutionContext, _ task.Options) error {
	return preCommit(ctx, ec, "go-cyclo")
}

// Lint runs the go-lint and go-vet hooks.
func Lint(ctx context.Context, ec *task.ExecutionContext, _ task.Options) error {
	return preCommit(ctx, ec, "go-lint", "go-vet")
}

// InstallHooks installs the pre-commit git hooks.
func InstallHooks(ctx context.Context, ec *task.ExecutionContext, _ task.Options) error {
	return ec.Exec(ctx, "pre-commit", "install")
}

// PreCommit runs every configured hook.
func PreCommit(ctx context.Context, ec *task.ExecutionContext, _ task.Options) error {
	return ec.Exec(ctx, "pre-commit", "run", "--all-files")
}

// Build builds the project through the go-build hook.
func Build(ctx context.Context, ec *task.ExecutionContext, _ task.Options) error {
	return preCommit(ctx, ec, "go-build")
}

// CompileProtos regenerates Go and gRPC code next to every proto file. The
// project's proto list is used when set; otherwise all *.proto files below
// the working directory are compiled. Each file's gen directory is recreated
// from scratch.
func CompileProtos(ctx context.Context, ec *task.ExecutionContext, _ task.Options) error {
	settings := ec.Settings()

	var services []string
	for _, p := range settings.Protos {
		services = append(services, ec.Path(p))
	}
	if len(services) == 0 {
		found, err := ec.Glob("**/*.proto")
		if err != nil {
			return err
		}
		services = found
	}
	if len(services) == 0 {
		ec.Printf("no proto files found")
		return nil
	}

	for _, service := range services {
		protoPath := filepath.Dir(service)
		outDir := filepath.Join(protoPath, "gen")
		if err := ec.RemoveAll(ctx, outDir); err != nil {
			return err
		}
		if err := ec.MkdirAll(ctx, outDir); err != nil {
			return err
		}
		ec.Printf("compiling %s to %s", rel(settings.Root, service), rel(settings.Root, outDir))
		if err := ec.Exec(ctx, ProtocArgv(settings.Package, settings.Root, service)...); err != nil {
			return err
		}
	}
	return nil
}

// ProtocArgv is the protoc invocation for one proto file. Generated code goes
// to a gen directory beside the file and is mapped to the matching import
// path below pkg.
func ProtocArgv(pkg, root, service string) []string {
	protoPath := filepath.Dir(service)
	outDir := filepath.Join(protoPath, "gen")
	importPath := filepath.ToSlash(rel(root, outDir))
	if pkg != "" {
		importPath = path.Join(pkg, importPath)
	}
	mapping := filepath.Base(service) + "=" + importPath

	return []string{
		"protoc",
		"--proto_path=" + protoPath,
		"--go_opt=M" + mapping,
		"--go-grpc_opt=M" + mapping,
		"--go_out=" + outDir,
		"--go-grpc_out=" + outDir,
		"--go_opt=paths=source_relative",
		"--go-grpc_opt=paths=source_relative",
		service,
	}
}

func rel(root, p string) string {
	if root == "" {
		return p
	}
	r, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return r
}

// CleanBuild removes the build directory.
func CleanBuild(ctx context.Context, ec *task.ExecutionContext, _ task.Options) error {
	dir := ec.Settings().BuildDir
	if dir == "" {
		dir = DefaultBuildDir
	}
	return ec.RemoveAll(ctx, dir)
}

// CleanCoverage removes every coverage.txt below the working directory.
func CleanCoverage(ctx context.Context, ec *task.ExecutionContext, _ task.Options) error {
	return ec.RemoveGlob(ctx, "**/coverage.txt")
}

// Clean has no steps of its own; its prerequisites do the work.
func Clean(context.Context, *task.ExecutionContext, task.Options) error {
	return nil
}
