package task

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/fsops"
	"github.com/vk/taskgridgo/internal/procexec"
)

// Settings are the project-wide values task bodies may consult. They replace
// module-level constants such as the package path or the build directory.
type Settings struct {
	// Package is the Go import path of the project the tasks operate on.
	Package string
	// Root is the absolute project root.
	Root string
	// BuildDir is where build output goes, relative to Root unless absolute.
	BuildDir string
	// Protos lists proto files to compile, relative to Root. Empty means
	// discover them.
	Protos []string
}

// ContextConfig is everything needed to construct an ExecutionContext.
type ContextConfig struct {
	Dir      string
	Env      map[string]string
	Settings Settings
	Process  procexec.Process
	Fs       afero.Fs
	Stdout   io.Writer
	Stderr   io.Writer
	// Capture keeps step output off the console. Output is recorded in
	// either mode.
	Capture bool
}

// ExecutionContext is the read-only environment of one run. Every task body
// receives a copy bound to its own TaskRecord; steps issued through it are
// recorded there.
type ExecutionContext struct {
	dir      string
	env      []string
	envMap   map[string]string
	settings Settings
	proc     procexec.Process
	fs       afero.Fs
	stdout   io.Writer
	stderr   io.Writer
	capture  bool

	record *TaskRecord
}

// NewExecutionContext builds a context from cfg. Missing collaborators fall
// back to the real OS process runner and filesystem.
func NewExecutionContext(cfg ContextConfig) *ExecutionContext {
	ec := &ExecutionContext{
		dir:      cfg.Dir,
		envMap:   make(map[string]string, len(cfg.Env)),
		settings: cfg.Settings,
		proc:     cfg.Process,
		fs:       cfg.Fs,
		stdout:   cfg.Stdout,
		stderr:   cfg.Stderr,
		capture:  cfg.Capture,
	}
	for k, v := range cfg.Env {
		ec.envMap[k] = v
	}
	ec.env = flattenEnv(ec.envMap)
	if ec.proc == nil {
		ec.proc = procexec.NewOS()
	}
	if ec.fs == nil {
		ec.fs = afero.NewOsFs()
	}
	if ec.stdout == nil {
		ec.stdout = io.Discard
	}
	if ec.stderr == nil {
		ec.stderr = io.Discard
	}
	if ec.settings.Root == "" {
		ec.settings.Root = ec.dir
	}
	return ec
}

func flattenEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Bind returns a copy of the context whose steps are recorded in rec.
func (ec *ExecutionContext) Bind(rec *TaskRecord) *ExecutionContext {
	bound := *ec
	bound.record = rec
	return &bound
}

// Dir returns the working directory of the run.
func (ec *ExecutionContext) Dir() string { return ec.dir }

// Settings returns the project settings.
func (ec *ExecutionContext) Settings() Settings { return ec.settings }

// Getenv returns the value of an environment variable of the run.
func (ec *ExecutionContext) Getenv(key string) string {
	return ec.envMap[key]
}

// EnvMap returns a copy of the environment.
func (ec *ExecutionContext) EnvMap() map[string]string {
	out := make(map[string]string, len(ec.envMap))
	for k, v := range ec.envMap {
		out[k] = v
	}
	return out
}

// Path resolves p against the working directory.
func (ec *ExecutionContext) Path(p string) string {
	if p == "" {
		return ec.dir
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(ec.dir, p)
}

// Printf writes a progress message to the run's stdout and records it on the
// task. Capture mode applies to step output only, so messages are written in
// either mode.
func (ec *ExecutionContext) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	if ec.record != nil {
		ec.record.Messages = append(ec.record.Messages, msg)
	}
	_, _ = io.WriteString(ec.stdout, msg)
}

// Cmd is a step invocation with optional per-step overrides.
type Cmd struct {
	Argv []string
	// Dir overrides the working directory; relative paths are resolved
	// against the run's directory.
	Dir string
	// Env adds to or overrides the run's environment for this step only.
	Env map[string]string
}

// Exec runs argv as a step in the run's working directory.
func (ec *ExecutionContext) Exec(ctx context.Context, argv ...string) error {
	return ec.Run(ctx, Cmd{Argv: argv})
}

// Run executes a step. A non-zero exit code becomes a *StepFailure, and
// after the first failure every later step of the same task is refused
// without being started.
func (ec *ExecutionContext) Run(ctx context.Context, c Cmd) error {
	if err := ec.halted(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)

	dir := ec.dir
	if c.Dir != "" {
		dir = ec.Path(c.Dir)
	}
	env := ec.env
	if len(c.Env) > 0 {
		merged := ec.EnvMap()
		for k, v := range c.Env {
			merged[k] = v
		}
		env = flattenEnv(merged)
	}

	buf := &syncBuffer{}
	var stdout, stderr io.Writer = buf, buf
	if !ec.capture {
		stdout = io.MultiWriter(ec.stdout, buf)
		stderr = io.MultiWriter(ec.stderr, buf)
	}

	logger.Debug("Running step.", "argv", c.Argv, "dir", dir)
	start := time.Now()
	res, err := ec.proc.Run(ctx, procexec.Command{
		Argv:   c.Argv,
		Dir:    dir,
		Env:    env,
		Stdout: stdout,
		Stderr: stderr,
	})
	step := StepRecord{
		Kind:     StepExec,
		Argv:     append([]string(nil), c.Argv...),
		Dir:      dir,
		ExitCode: res.ExitCode,
		Output:   buf.Bytes(),
		Duration: time.Since(start),
	}
	if err != nil && step.ExitCode == 0 {
		step.ExitCode = 1
	}
	ec.recordStep(step)

	if err != nil || step.ExitCode != 0 {
		logger.Error("Step failed.", "argv", c.Argv, "exit_code", step.ExitCode, "error", err)
		return ec.fail(step, err)
	}
	logger.Debug("Step finished.", "argv", c.Argv, "duration", step.Duration)
	return nil
}

// RemoveAll deletes a file or directory tree. A missing target succeeds.
func (ec *ExecutionContext) RemoveAll(ctx context.Context, path string) error {
	if err := ec.halted(); err != nil {
		return err
	}
	target := ec.Path(path)
	ctxlog.FromContext(ctx).Debug("Removing path.", "path", target)
	err := fsops.RemoveAll(ec.fs, target)
	return ec.fsStep(StepRemove, []string{"remove", target}, err)
}

// RemoveGlob deletes every path below the working directory matching a
// doublestar pattern. No matches succeeds.
func (ec *ExecutionContext) RemoveGlob(ctx context.Context, pattern string) error {
	if err := ec.halted(); err != nil {
		return err
	}
	removed, err := fsops.RemoveGlob(ec.fs, ec.dir, pattern)
	ctxlog.FromContext(ctx).Debug("Removed glob matches.", "pattern", pattern, "count", len(removed))
	return ec.fsStep(StepRemove, append([]string{"remove", pattern}, removed...), err)
}

// MkdirAll creates a directory and its parents.
func (ec *ExecutionContext) MkdirAll(ctx context.Context, path string) error {
	if err := ec.halted(); err != nil {
		return err
	}
	target := ec.Path(path)
	ctxlog.FromContext(ctx).Debug("Creating directory.", "path", target)
	err := fsops.MkdirAll(ec.fs, target)
	return ec.fsStep(StepMkdir, []string{"mkdir", target}, err)
}

// Glob lists paths below the working directory matching a doublestar pattern.
// It is a query, not a step, and is not recorded.
func (ec *ExecutionContext) Glob(pattern string) ([]string, error) {
	return fsops.Glob(ec.fs, ec.dir, pattern)
}

func (ec *ExecutionContext) fsStep(kind StepKind, argv []string, err error) error {
	step := StepRecord{Kind: kind, Argv: argv, Dir: ec.dir}
	if err != nil {
		step.ExitCode = 1
		step.Output = []byte(err.Error())
	}
	ec.recordStep(step)
	if err != nil {
		return ec.fail(step, err)
	}
	return nil
}

func (ec *ExecutionContext) halted() error {
	if ec.record != nil && ec.record.failure != nil {
		return ec.record.failure
	}
	return nil
}

func (ec *ExecutionContext) recordStep(step StepRecord) {
	if ec.record != nil {
		ec.record.Steps = append(ec.record.Steps, step)
	}
}

func (ec *ExecutionContext) fail(step StepRecord, err error) error {
	name := ""
	if ec.record != nil {
		name = ec.record.Name
	}
	failure := &StepFailure{
		Task:     name,
		Argv:     step.Argv,
		ExitCode: step.ExitCode,
		Output:   step.Output,
		Err:      err,
	}
	if ec.record != nil {
		ec.record.failure = failure
	}
	return failure
}
