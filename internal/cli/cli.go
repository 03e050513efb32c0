package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/taskgridgo/internal/app"
	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/task"
)

// Execute builds the application from the global flags in args, then runs
// the command tree. Any returned error is an *ExitError. configure may adjust
// the app configuration before the app is built.
func Execute(ctx context.Context, args []string, outW, errW io.Writer, loader config.Loader, configure ...func(*app.Config)) error {
	globals, err := parseGlobals(args)
	if err != nil {
		return exitErrorFor(err)
	}
	cfg, err := globals.appConfig()
	if err != nil {
		return exitErrorFor(err)
	}
	for _, fn := range configure {
		fn(cfg)
	}

	a, err := app.NewApp(outW, errW, cfg, loader)
	if err != nil {
		return usageError(err)
	}

	root, err := newRootCommand(a, globals)
	if err != nil {
		return exitErrorFor(err)
	}
	root.SetArgs(args)
	root.SetOut(outW)
	root.SetErr(errW)
	if err := root.ExecuteContext(ctx); err != nil {
		return exitErrorFor(err)
	}
	return nil
}

func newRootCommand(a *app.App, globals *globalFlags) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           "taskgrid [flags] <task> [task flags]",
		Short:         "Run declared development tasks in dependency order.",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || globals.list {
				return listTasks(cmd.OutOrStdout(), a.Registry().Definitions())
			}
			return &task.UnknownTaskError{Name: args[0]}
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	// Declared again so cobra accepts them anywhere and shows them in help.
	// The values that count were already read by parseGlobals.
	(&globalFlags{}).bind(root.PersistentFlags())

	reserved := reservedFlagNames()
	taken := make(map[string]bool)
	for _, def := range a.Registry().Definitions() {
		for _, opt := range def.Options {
			if name := flagName(opt.Name); reserved[name] {
				return nil, usageError(fmt.Errorf("task %q: option %q clashes with the global flag --%s", def.Name, opt.Name, name))
			}
		}
		root.AddCommand(newTaskCommand(a, def, globals))
		taken[def.Name] = true
	}
	if !taken["list"] {
		root.AddCommand(&cobra.Command{
			Use:   "list",
			Short: "List the available tasks",
			Args:  noArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return listTasks(cmd.OutOrStdout(), a.Registry().Definitions())
			},
		})
	}
	return root, nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError(fmt.Errorf("%s takes no arguments, got %q", cmd.Name(), args))
	}
	return nil
}

func newTaskCommand(a *app.App, def *task.Definition, globals *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   def.Name,
		Short: def.Description,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides, err := optionOverrides(cmd.Flags(), def)
			if err != nil {
				return err
			}
			if globals.dryRun {
				order, err := a.Plan(def.Name)
				if err != nil {
					return err
				}
				return printPlan(cmd.OutOrStdout(), order)
			}
			report, err := a.Run(cmd.Context(), def.Name, overrides)
			printSummary(cmd.ErrOrStderr(), def.Name, report, err, globals.capture)
			return err
		},
	}
	if len(def.Prerequisites) > 0 {
		cmd.Long = fmt.Sprintf("%s\n\nRuns after: %v", def.Description, def.Prerequisites)
	}
	bindOptionFlags(cmd.Flags(), def)
	return cmd
}
