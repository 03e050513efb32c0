package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/google/shlex"
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/task"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Compiler turns HCL tasks into task definitions whose bodies interpret the
// declared steps.
type Compiler struct {
	functions map[string]function.Function
}

// NewCompiler creates a compiler with the default function table.
func NewCompiler() *Compiler {
	return &Compiler{functions: functions()}
}

// functions is the set of cty stdlib functions available in step expressions.
func functions() map[string]function.Function {
	return map[string]function.Function{
		"coalesce":  stdlib.CoalesceFunc,
		"compact":   stdlib.CompactFunc,
		"concat":    stdlib.ConcatFunc,
		"contains":  stdlib.ContainsFunc,
		"format":    stdlib.FormatFunc,
		"join":      stdlib.JoinFunc,
		"length":    stdlib.LengthFunc,
		"lower":     stdlib.LowerFunc,
		"replace":   stdlib.ReplaceFunc,
		"split":     stdlib.SplitFunc,
		"trimspace": stdlib.TrimSpaceFunc,
		"upper":     stdlib.UpperFunc,
	}
}

// Compile implements config.Compiler.
func (c *Compiler) Compile(ctx context.Context, model *config.Model) ([]task.Definition, error) {
	logger := ctxlog.FromContext(ctx)
	defs := make([]task.Definition, 0, len(model.Tasks))
	for _, t := range model.Tasks {
		def := task.Definition{
			Name:          t.Name,
			Description:   t.Description,
			Prerequisites: append([]string(nil), t.DependsOn...),
			Body:          c.body(t),
		}
		for _, o := range t.Options {
			def.Options = append(def.Options, task.Option{
				Name:        o.Name,
				Type:        o.Type,
				Default:     o.Default,
				Description: o.Description,
			})
		}
		logger.Debug("Compiled HCL task.", "task", t.Name, "steps", len(t.Steps), "declared_at", t.DeclRange.String())
		defs = append(defs, def)
	}
	return defs, nil
}

func (c *Compiler) body(t *config.Task) task.Body {
	return func(ctx context.Context, ec *task.ExecutionContext, opts task.Options) error {
		evalCtx := c.evalContext(ec, opts)
		for i, s := range t.Steps {
			if err := c.runStep(ctx, ec, evalCtx, s); err != nil {
				return fmt.Errorf("step %d (%s) at %s: %w", i+1, s.Kind, s.DeclRange, err)
			}
		}
		return nil
	}
}

func (c *Compiler) evalContext(ec *task.ExecutionContext, opts task.Options) *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for k, v := range ec.EnvMap() {
		env[k] = cty.StringVal(v)
	}
	settings := ec.Settings()
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"option": opts.Object(),
			"env":    cty.ObjectVal(env),
			"project": cty.ObjectVal(map[string]cty.Value{
				"package":   cty.StringVal(settings.Package),
				"root":      cty.StringVal(settings.Root),
				"build_dir": cty.StringVal(settings.BuildDir),
			}),
		},
		Functions: c.functions,
	}
}

func (c *Compiler) runStep(ctx context.Context, ec *task.ExecutionContext, evalCtx *hcl.EvalContext, s *config.Step) error {
	if expr, ok := s.Attribute("when"); ok {
		var when bool
		if err := evalInto(expr, evalCtx, cty.Bool, &when); err != nil {
			return err
		}
		if !when {
			ctxlog.FromContext(ctx).Debug("Skipping step.", "kind", s.Kind, "declared_at", s.DeclRange.String())
			return nil
		}
	}

	switch s.Kind {
	case config.StepExec:
		cmd, err := execCommand(s, evalCtx)
		if err != nil {
			return err
		}
		return ec.Run(ctx, cmd)

	case config.StepRemove:
		if expr, ok := s.Attribute("paths"); ok {
			var paths []string
			if err := evalInto(expr, evalCtx, cty.List(cty.String), &paths); err != nil {
				return err
			}
			for _, p := range paths {
				if err := ec.RemoveAll(ctx, p); err != nil {
					return err
				}
			}
		}
		if expr, ok := s.Attribute("glob"); ok {
			var pattern string
			if err := evalInto(expr, evalCtx, cty.String, &pattern); err != nil {
				return err
			}
			return ec.RemoveGlob(ctx, pattern)
		}
		return nil

	case config.StepMkdir:
		expr, _ := s.Attribute("path")
		var path string
		if err := evalInto(expr, evalCtx, cty.String, &path); err != nil {
			return err
		}
		return ec.MkdirAll(ctx, path)

	case config.StepPrint:
		expr, _ := s.Attribute("message")
		var msg string
		if err := evalInto(expr, evalCtx, cty.String, &msg); err != nil {
			return err
		}
		ec.Printf("%s\n", msg)
		return nil

	default:
		return fmt.Errorf("unknown step kind %q", s.Kind)
	}
}

func execCommand(s *config.Step, evalCtx *hcl.EvalContext) (task.Cmd, error) {
	var cmd task.Cmd
	if expr, ok := s.Attribute("command"); ok {
		if err := evalInto(expr, evalCtx, cty.List(cty.String), &cmd.Argv); err != nil {
			return cmd, err
		}
	} else {
		expr, _ := s.Attribute("run")
		var line string
		if err := evalInto(expr, evalCtx, cty.String, &line); err != nil {
			return cmd, err
		}
		argv, err := shlex.Split(line)
		if err != nil {
			return cmd, fmt.Errorf("%s: cannot split command line: %w", expr.Range(), err)
		}
		cmd.Argv = argv
	}
	if len(cmd.Argv) == 0 {
		return cmd, fmt.Errorf("exec step has an empty command")
	}

	if expr, ok := s.Attribute("dir"); ok {
		if err := evalInto(expr, evalCtx, cty.String, &cmd.Dir); err != nil {
			return cmd, err
		}
	}
	if expr, ok := s.Attribute("env"); ok {
		if err := evalInto(expr, evalCtx, cty.Map(cty.String), &cmd.Env); err != nil {
			return cmd, err
		}
	}
	return cmd, nil
}

// evalInto evaluates expr, converts the result to ty and stores it in target.
func evalInto(expr hcl.Expression, evalCtx *hcl.EvalContext, ty cty.Type, target any) error {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return diags
	}
	val, err := convert.Convert(val, ty)
	if err != nil {
		return fmt.Errorf("%s: want %s: %w", expr.Range(), ty.FriendlyName(), err)
	}
	if val.IsNull() {
		return fmt.Errorf("%s: value must not be null", expr.Range())
	}
	if !val.IsWhollyKnown() {
		return fmt.Errorf("%s: value is not known", expr.Range())
	}
	return gocty.FromCtyValue(val, target)
}
