package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/vk/taskgridgo/internal/task"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
)

// listTasks prints every task with its description, prerequisites and
// options.
func listTasks(w io.Writer, defs []*task.Definition) error {
	if len(defs) == 0 {
		_, err := fmt.Fprintln(w, "No tasks registered.")
		return err
	}

	fmt.Fprintln(w, bold("Available tasks:"))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, def := range defs {
		line := "  " + def.Name + "\t" + def.Description
		if len(def.Prerequisites) > 0 {
			line += " " + gray("(after "+strings.Join(def.Prerequisites, ", ")+")")
		}
		fmt.Fprintln(tw, line)
		for _, opt := range def.Options {
			fmt.Fprintf(tw, "    --%s\t%s %s\n", flagName(opt.Name), opt.Description,
				gray(fmt.Sprintf("[%s, default %s]", opt.Type.FriendlyName(), formatDefault(opt))))
		}
	}
	return tw.Flush()
}

func formatDefault(opt task.Option) string {
	s := task.FormatValue(opt.Default)
	if opt.Type.FriendlyName() == "string" {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// printPlan prints a resolved execution order, one task per line.
func printPlan(w io.Writer, order []string) error {
	for i, name := range order {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, name); err != nil {
			return err
		}
	}
	return nil
}

// printSummary reports the outcome of a run. With captured output, a failed
// step's output is replayed since it was never streamed.
func printSummary(w io.Writer, target string, report *task.Report, err error, captured bool) {
	if err == nil {
		fmt.Fprintf(w, "%s %s (%d tasks)\n", green("✔"), target, len(report.Tasks))
		return
	}
	if report == nil {
		return
	}

	var failure *task.StepFailure
	if errors.As(err, &failure) {
		fmt.Fprintf(w, "%s task %s failed: %s exited with code %d\n",
			red("✘"), failure.Task, bold(strings.Join(failure.Argv, " ")), failure.ExitCode)
		if captured && len(failure.Output) > 0 {
			_, _ = w.Write(failure.Output)
		}
		return
	}
	fmt.Fprintf(w, "%s %s failed\n", red("✘"), target)
}
