package hcl_adapter

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// stepAttributes lists the attributes each step kind accepts.
var stepAttributes = map[config.StepKind]map[string]bool{
	config.StepExec:   {"command": true, "run": true, "dir": true, "env": true, "when": true},
	config.StepRemove: {"paths": true, "glob": true, "when": true},
	config.StepMkdir:  {"path": true, "when": true},
	config.StepPrint:  {"message": true, "when": true},
}

// projectAttributes are the names reachable as project.<name> in expressions.
var projectAttributes = map[string]bool{
	"package":   true,
	"root":      true,
	"build_dir": true,
}

func translateProject(ctx context.Context, p *Project) (*config.Project, error) {
	out := &config.Project{
		Package:  p.Package,
		BuildDir: p.BuildDir,
		EnvFile:  p.EnvFile,
		Env:      p.Env,
		Protos:   p.Protos,
	}
	if isExprDefined(ctx, p.Builtin, "builtin") {
		val, diags := p.Builtin.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid builtin value in project block: %w", diags)
		}
		if val.IsNull() || !val.Type().Equals(cty.Bool) {
			return nil, fmt.Errorf("%s: builtin must be a bool", p.Builtin.Range())
		}
		b := val.True()
		out.Builtin = &b
	}
	return out, nil
}

func translateTask(ctx context.Context, t *Task) (*config.Task, error) {
	logger := ctxlog.FromContext(ctx).With("task", t.Name)
	logger.Debug("Translating task block.", "options", len(t.Options), "steps", len(t.Steps))

	out := &config.Task{
		Name:        t.Name,
		Description: t.Description,
		DependsOn:   t.DependsOn,
		DeclRange:   t.DefRange,
	}

	declared := make(map[string]bool, len(t.Options))
	for _, o := range t.Options {
		if declared[o.Name] {
			return nil, fmt.Errorf("task '%s' declares option '%s' more than once", t.Name, o.Name)
		}
		declared[o.Name] = true
		def, err := translateOptionDefinition(ctx, o, t.Name)
		if err != nil {
			return nil, err
		}
		out.Options = append(out.Options, def)
	}

	for i, s := range t.Steps {
		step, err := translateStep(s, declared)
		if err != nil {
			return nil, fmt.Errorf("in task '%s', step %d: %w", t.Name, i+1, err)
		}
		out.Steps = append(out.Steps, step)
	}
	return out, nil
}

// translateOptionDefinition processes a single option block, handling its
// default value and type parsing.
func translateOptionDefinition(ctx context.Context, o *Option, taskName string) (*config.OptionDefinition, error) {
	parsedType, err := typeExprToCtyType(ctx, o.Type)
	if err != nil {
		return nil, fmt.Errorf("in task '%s', option '%s': %w", taskName, o.Name, err)
	}

	def := &config.OptionDefinition{
		Name:        o.Name,
		Type:        parsedType,
		Description: o.Description,
	}
	if isExprDefined(ctx, o.Default, "default") {
		val, diags := o.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default value for option '%s' in task '%s': %w", o.Name, taskName, diags)
		}
		def.Default = val
	}
	return def, nil
}

func translateStep(s *Step, options map[string]bool) (*config.Step, error) {
	kind := config.StepKind(s.Kind)
	allowed, ok := stepAttributes[kind]
	if !ok {
		return nil, fmt.Errorf("%s: unknown step kind %q, want one of %v", s.DefRange, s.Kind, stepKinds())
	}

	attrs, diags := s.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	step := &config.Step{
		Kind:       kind,
		Attributes: make(map[string]hcl.Expression, len(attrs)),
		DeclRange:  s.DefRange,
	}
	for name, attr := range attrs {
		if !allowed[name] {
			return nil, fmt.Errorf("%s: attribute %q is not valid in a %q step", attr.NameRange, name, kind)
		}
		if err := checkReferences(attr.Expr, options); err != nil {
			return nil, err
		}
		step.Attributes[name] = attr.Expr
	}
	if err := checkRequired(step); err != nil {
		return nil, fmt.Errorf("%s: %w", s.DefRange, err)
	}
	return step, nil
}

func checkRequired(s *config.Step) error {
	has := func(name string) bool {
		_, ok := s.Attributes[name]
		return ok
	}
	switch s.Kind {
	case config.StepExec:
		if has("command") == has("run") {
			return fmt.Errorf("exec step needs exactly one of command or run")
		}
	case config.StepRemove:
		if !has("paths") && !has("glob") {
			return fmt.Errorf("remove step needs paths or glob")
		}
	case config.StepMkdir:
		if !has("path") {
			return fmt.Errorf("mkdir step needs path")
		}
	case config.StepPrint:
		if !has("message") {
			return fmt.Errorf("print step needs message")
		}
	}
	return nil
}

// checkReferences makes sure an expression only refers to variables that
// exist when the step runs.
func checkReferences(expr hcl.Expression, options map[string]bool) error {
	for _, traversal := range expr.Variables() {
		root := traversal.RootName()
		var attr string
		if len(traversal) > 1 {
			if step, ok := traversal[1].(hcl.TraverseAttr); ok {
				attr = step.Name
			}
		}
		switch root {
		case "env":
		case "option":
			if attr != "" && !options[attr] {
				return fmt.Errorf("%s: reference to undeclared option %q", traversal.SourceRange(), attr)
			}
		case "project":
			if attr != "" && !projectAttributes[attr] {
				return fmt.Errorf("%s: unknown project attribute %q", traversal.SourceRange(), attr)
			}
		default:
			return fmt.Errorf("%s: unknown variable %q, want option, env or project", traversal.SourceRange(), root)
		}
	}
	return nil
}

func stepKinds() []string {
	kinds := make([]string, 0, len(stepAttributes))
	for k := range stepAttributes {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	return kinds
}
