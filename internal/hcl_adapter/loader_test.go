package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/taskgridgo/internal/config"
	"github.com/zclconf/go-cty/cty"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	writeFile(t, dir, "project.hcl", `
project {
  package   = "github.com/romnn/go-service"
  build_dir = "out"
  env_file  = ".env.local"
  env       = { GOFLAGS = "-mod=mod" }
  builtin   = false
}
`)
	writeFile(t, dir, "tasks/test.hcl", `
task "test" {
  description = "Run tests"
  depends_on  = ["generate"]

  option "race" {
    type        = bool
    default     = true
    description = "Enable the race detector"
  }

  step "exec" {
    command = concat(["go", "test"], option.race ? ["-race"] : [], ["./..."])
  }
}

task "generate" {
  step "exec" {
    run = "go generate ./..."
  }
}
`)

	// --- Act ---
	model, compiler, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, compiler)
	require.Len(t, model.Files, 2)

	builtin := false
	want := &config.Project{
		Package:  "github.com/romnn/go-service",
		BuildDir: "out",
		EnvFile:  ".env.local",
		Env:      map[string]string{"GOFLAGS": "-mod=mod"},
		Builtin:  &builtin,
	}
	if diff := cmp.Diff(want, model.Project); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, model.Tasks, 2)
	test := model.Tasks[0]
	require.Equal(t, "test", test.Name)
	require.Equal(t, "Run tests", test.Description)
	require.Equal(t, []string{"generate"}, test.DependsOn)
	require.Len(t, test.Options, 1)
	require.Equal(t, "race", test.Options[0].Name)
	require.True(t, test.Options[0].Type.Equals(cty.Bool))
	require.True(t, test.Options[0].Default.True())
	require.Len(t, test.Steps, 1)
	require.Equal(t, config.StepExec, test.Steps[0].Kind)
	_, ok := test.Steps[0].Attribute("command")
	require.True(t, ok)

	require.Equal(t, "generate", model.Tasks[1].Name)
}

func TestLoader_Load_BuiltinUnset(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tasks.hcl", `project { package = "example.com/x" }`)

	model, _, err := NewLoader().Load(context.Background(), filepath.Join(dir, "tasks.hcl"))

	require.NoError(t, err)
	require.NotNil(t, model.Project)
	require.Nil(t, model.Project.Builtin)
}

func TestLoader_Load_MissingPathIsSkipped(t *testing.T) {
	model, _, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))

	require.NoError(t, err)
	require.Nil(t, model.Project)
	require.Empty(t, model.Tasks)
	require.Empty(t, model.Files)
}

func TestLoader_Load_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown step kind",
			content: "task \"a\" {\n  step \"teleport\" {}\n}\n",
			wantErr: `unknown step kind "teleport"`,
		},
		{
			name:    "attribute not valid for kind",
			content: "task \"a\" {\n  step \"mkdir\" { paths = [\"x\"] }\n}\n",
			wantErr: `attribute "paths" is not valid in a "mkdir" step`,
		},
		{
			name:    "exec with command and run",
			content: "task \"a\" {\n  step \"exec\" {\n    command = [\"a\"]\n    run     = \"a\"\n  }\n}\n",
			wantErr: "exactly one of command or run",
		},
		{
			name:    "exec without command",
			content: "task \"a\" {\n  step \"exec\" { dir = \"x\" }\n}\n",
			wantErr: "exactly one of command or run",
		},
		{
			name:    "remove without target",
			content: "task \"a\" {\n  step \"remove\" {}\n}\n",
			wantErr: "remove step needs paths or glob",
		},
		{
			name: "collection option type",
			content: `task "a" {
  option "tags" { type = list(string) }
}`,
			wantErr: "not supported",
		},
		{
			name: "unknown option type",
			content: `task "a" {
  option "x" { type = any }
}`,
			wantErr: `unknown option type "any"`,
		},
		{
			name: "undeclared option reference",
			content: `task "a" {
  step "print" { message = option.verbose }
}`,
			wantErr: `undeclared option "verbose"`,
		},
		{
			name: "unknown variable root",
			content: `task "a" {
  step "print" { message = var.x }
}`,
			wantErr: `unknown variable "var"`,
		},
		{
			name: "unknown project attribute",
			content: `task "a" {
  step "print" { message = project.owner }
}`,
			wantErr: `unknown project attribute "owner"`,
		},
		{
			name: "duplicate option",
			content: `task "a" {
  option "x" { type = bool }
  option "x" { type = bool }
}`,
			wantErr: "declares option 'x' more than once",
		},
		{
			name:    "duplicate project",
			content: "project {}\nproject {}\n",
			wantErr: "duplicate project block",
		},
		{
			name:    "unexpected top-level attribute",
			content: "name = \"x\"\n",
			wantErr: `An argument named "name" is not expected here`,
		},
		{
			name:    "unexpected top-level block",
			content: "resource \"x\" {}\n",
			wantErr: `Blocks of type "resource" are not expected here`,
		},
		{
			name:    "non-bool builtin",
			content: `project { builtin = "yes" }`,
			wantErr: "builtin must be a bool",
		},
		{
			name:    "syntax error",
			content: `task "a" {`,
			wantErr: "failed to parse HCL file",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			path := writeFile(t, t.TempDir(), "tasks.hcl", tc.content)

			// --- Act ---
			_, _, err := NewLoader().Load(context.Background(), path)

			// --- Assert ---
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
