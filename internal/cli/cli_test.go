package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/taskgridgo/internal/app"
	"github.com/vk/taskgridgo/internal/hcl_adapter"
	"github.com/vk/taskgridgo/internal/procexec"
	"github.com/vk/taskgridgo/internal/task"
)

const taskFile = `
task "generate" {
  description = "Generate code"
  step "exec" {
    command = ["go", "generate", "./..."]
  }
}

task "check" {
  description = "Run checks"
  depends_on  = ["generate"]

  option "race" {
    type    = bool
    default = true
  }
  option "pkg_path" {
    type        = string
    default     = "./..."
    description = "Packages to check"
  }
  option "count" {
    type    = number
    default = 1
  }

  step "exec" {
    command = concat(["go", "test"], option.race ? ["-race"] : [], ["-count=${option.count}", option.pkg_path])
  }
}
`

type cliHarness struct {
	dir   string
	out   *bytes.Buffer
	errW  *bytes.Buffer
	calls []string
	codes map[string]int
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultTaskFile), []byte(taskFile), 0o644))
	return &cliHarness{dir: dir, out: &bytes.Buffer{}, errW: &bytes.Buffer{}, codes: map[string]int{}}
}

func (h *cliHarness) run(args ...string) error {
	full := append([]string{"-C", h.dir, "--no-builtin", "--log-level", "error"}, args...)
	return Execute(context.Background(), full, h.out, h.errW, hcl_adapter.NewLoader(), func(cfg *app.Config) {
		cfg.Environ = []string{}
		cfg.Process = procexec.Func(func(_ context.Context, cmd procexec.Command) (procexec.Result, error) {
			line := strings.Join(cmd.Argv, " ")
			h.calls = append(h.calls, line)
			return procexec.Result{ExitCode: h.codes[line]}, nil
		})
	})
}

func TestExecute_RunsTaskWithDefaults(t *testing.T) {
	// --- Arrange ---
	h := newCLIHarness(t)

	// --- Act ---
	err := h.run("check")

	// --- Assert ---
	require.NoError(t, err)
	want := []string{"go generate ./...", "go test -race -count=1 ./..."}
	if diff := cmp.Diff(want, h.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, h.errW.String(), "check (2 tasks)")
}

func TestExecute_OptionFlags(t *testing.T) {
	h := newCLIHarness(t)

	err := h.run("check", "--race=false", "--pkg-path", "./internal/...", "--count", "3")

	require.NoError(t, err)
	assert.Equal(t, []string{"go generate ./...", "go test -count=3 ./internal/..."}, h.calls)
}

func TestExecute_GlobalFlagsAfterTask(t *testing.T) {
	h := newCLIHarness(t)

	err := h.run("generate", "--capture")

	require.NoError(t, err)
	assert.Equal(t, []string{"go generate ./..."}, h.calls)
}

func TestExecute_ExitCodes(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		codes    map[string]int
		wantCode int
		wantMsg  string
	}{
		{
			name:     "failing step",
			args:     []string{"check"},
			codes:    map[string]int{"go generate ./...": 7},
			wantCode: 7,
			wantMsg:  "exited with code 7",
		},
		{
			name:     "unknown task",
			args:     []string{"deploy"},
			wantCode: ExitCodeUsage,
			wantMsg:  `task "deploy" is not registered`,
		},
		{
			name:     "unknown flag",
			args:     []string{"check", "--nope"},
			wantCode: ExitCodeUsage,
			wantMsg:  "unknown flag",
		},
		{
			name:     "invalid flag value",
			args:     []string{"check", "--count=many"},
			wantCode: ExitCodeUsage,
		},
		{
			name:     "extra argument",
			args:     []string{"check", "now"},
			wantCode: ExitCodeUsage,
			wantMsg:  "takes no arguments",
		},
		{
			name:     "invalid log level",
			args:     []string{"--log-level", "loud", "check"},
			wantCode: ExitCodeUsage,
			wantMsg:  "invalid log level",
		},
		{
			name:     "invalid env override",
			args:     []string{"-e", "BROKEN", "check"},
			wantCode: ExitCodeUsage,
			wantMsg:  "invalid environment override",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			h := newCLIHarness(t)
			for k, v := range tc.codes {
				h.codes[k] = v
			}

			// --- Act ---
			err := h.run(tc.args...)

			// --- Assert ---
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tc.wantCode, exitErr.Code)
			if tc.wantMsg != "" {
				assert.Contains(t, exitErr.Message, tc.wantMsg)
			}
		})
	}
}

func TestExecute_FailureSummary(t *testing.T) {
	h := newCLIHarness(t)
	h.codes["go generate ./..."] = 2

	err := h.run("check")

	require.Error(t, err)
	assert.Contains(t, h.errW.String(), "task generate failed")
	assert.Equal(t, []string{"go generate ./..."}, h.calls, "check must not run after its prerequisite failed")
}

func TestExecute_List(t *testing.T) {
	for _, args := range [][]string{{}, {"list"}, {"--list"}} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			h := newCLIHarness(t)

			err := h.run(args...)

			require.NoError(t, err)
			out := h.out.String()
			assert.Contains(t, out, "generate")
			assert.Contains(t, out, "Generate code")
			assert.Contains(t, out, "--pkg-path")
			assert.Contains(t, out, "after generate")
			assert.Empty(t, h.calls)
		})
	}
}

func TestExecute_BrokenTaskFile(t *testing.T) {
	h := newCLIHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, DefaultTaskFile), []byte(`task "x" {`), 0o644))

	err := h.run("x")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitCodeUsage, exitErr.Code)
}

func TestExecute_OptionClashingWithGlobalFlag(t *testing.T) {
	testCases := []struct {
		name   string
		option string
		args   []string
	}{
		{name: "env", option: "env", args: []string{"deploy", "--env=STAGE=prod"}},
		{name: "dir", option: "dir", args: []string{"deploy"}},
		{name: "dry run spelled with underscore", option: "dry_run", args: []string{"deploy"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			h := newCLIHarness(t)
			content := `
task "deploy" {
  option "` + tc.option + `" {
    type    = string
    default = ""
  }
  step "exec" {
    command = ["deploy"]
  }
}
`
			require.NoError(t, os.WriteFile(filepath.Join(h.dir, DefaultTaskFile), []byte(content), 0o644))

			// --- Act ---
			err := h.run(tc.args...)

			// --- Assert ---
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, ExitCodeUsage, exitErr.Code)
			assert.Contains(t, exitErr.Message, "clashes with the global flag --"+flagName(tc.option))
			assert.Empty(t, h.calls)
		})
	}
}

func TestExecute_DryRunPrintsOrder(t *testing.T) {
	h := newCLIHarness(t)

	err := h.run("check", "--dry-run", "--race=false")

	require.NoError(t, err)
	assert.Equal(t, "1. generate\n2. check\n", h.out.String())
	assert.Empty(t, h.calls)
}

func TestExitErrorFor(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"step failure", &task.StepFailure{Task: "a", ExitCode: 42}, 42},
		{"wrapped step failure", errors.Join(errors.New("ctx"), &task.StepFailure{ExitCode: 3}), 3},
		{"not started", &task.StepFailure{ExitCode: procexec.ExitCodeNotStarted}, 127},
		{"cycle", &task.CyclicDependencyError{Path: []string{"a", "b", "a"}}, ExitCodeUsage},
		{"unknown option", &task.UnknownOptionError{Task: "a", Option: "x"}, ExitCodeUsage},
		{"cancelled", context.Canceled, ExitCodeInterrupted},
		{"other", errors.New("boom"), ExitCodeFailure},
		{"exit error", &ExitError{Code: 9, Message: "x"}, 9},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitErrorFor(tc.err).Code)
		})
	}
}
