package cli

import (
	"io"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/vk/taskgridgo/internal/app"
)

// DefaultTaskFile is loaded from the working directory when no --file is
// given. It may be absent.
const DefaultTaskFile = "tasks.hcl"

// globalFlags are accepted before or after the task name.
type globalFlags struct {
	files     []string
	dir       string
	env       []string
	capture   bool
	noBuiltin bool
	logLevel  string
	logFormat string
	list      bool
	dryRun    bool
}

func (g *globalFlags) bind(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&g.files, "file", "f", nil, "Task file or directory of task files (repeatable). Defaults to "+DefaultTaskFile+".")
	fs.StringVarP(&g.dir, "dir", "C", ".", "Working directory of every task.")
	fs.StringArrayVarP(&g.env, "env", "e", nil, "Set an environment variable for every step, as KEY=VALUE (repeatable).")
	fs.BoolVar(&g.capture, "capture", false, "Capture step output instead of streaming it.")
	fs.BoolVar(&g.noBuiltin, "no-builtin", false, "Do not register the built-in Go project tasks.")
	fs.StringVar(&g.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&g.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.BoolVarP(&g.list, "list", "l", false, "List the available tasks.")
	fs.BoolVar(&g.dryRun, "dry-run", false, "Print the order the task and its prerequisites would run in, without running them.")
}

// reservedFlagNames returns every long flag name a task option must not
// reuse, since the global flags are read out of the whole command line.
func reservedFlagNames() map[string]bool {
	fs := pflag.NewFlagSet("reserved", pflag.ContinueOnError)
	(&globalFlags{}).bind(fs)
	reserved := map[string]bool{"help": true}
	fs.VisitAll(func(f *pflag.Flag) {
		reserved[f.Name] = true
	})
	return reserved
}

// parseGlobals reads the global flags out of args before the command tree
// exists. Task flags are not known yet and are skipped.
func parseGlobals(args []string) (*globalFlags, error) {
	g := &globalFlags{}
	fs := pflag.NewFlagSet("globals", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	g.bind(fs)
	fs.BoolP("help", "h", false, "")

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	return g, nil
}

// appConfig converts the global flags into a validated app configuration.
func (g *globalFlags) appConfig() (*app.Config, error) {
	paths := g.files
	if len(paths) == 0 {
		paths = []string{DefaultTaskFile}
	}
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(g.dir, p)
		}
		resolved = append(resolved, p)
	}

	cfg, err := app.NewConfig(app.Config{
		TaskPaths: resolved,
		Dir:       g.dir,
		Env:       g.env,
		Capture:   g.capture,
		NoBuiltin: g.noBuiltin,
		LogFormat: g.logFormat,
		LogLevel:  g.logLevel,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}
