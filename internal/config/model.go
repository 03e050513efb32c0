package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified representation of every loaded task file.
type Model struct {
	Project *Project
	Tasks   []*Task
	Files   []string
}

// Project holds project-wide settings. Zero values mean "not set".
type Project struct {
	Package  string
	BuildDir string
	EnvFile  string
	Env      map[string]string
	Protos   []string
	// Builtin is nil when the file does not say whether built-in tasks are
	// wanted.
	Builtin *bool
}

// Task is a task declared in a task file.
type Task struct {
	Name        string
	Description string
	DependsOn   []string
	Options     []*OptionDefinition
	Steps       []*Step
	DeclRange   hcl.Range
}

// OptionDefinition is a declared task option.
type OptionDefinition struct {
	Name        string
	Type        cty.Type
	Default     cty.Value
	Description string
}

// StepKind names what a declared step does.
type StepKind string

const (
	StepExec   StepKind = "exec"
	StepRemove StepKind = "remove"
	StepMkdir  StepKind = "mkdir"
	StepPrint  StepKind = "print"
)

// Step is a declared step. Its attributes stay unevaluated until the task
// runs, because they may refer to option values.
type Step struct {
	Kind       StepKind
	Attributes map[string]hcl.Expression
	DeclRange  hcl.Range
}

// Attribute returns the expression of a step attribute, if it was set.
func (s *Step) Attribute(name string) (hcl.Expression, bool) {
	expr, ok := s.Attributes[name]
	return expr, ok
}
