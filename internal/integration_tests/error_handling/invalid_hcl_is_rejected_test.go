package error_handling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/taskgridgo/internal/cli"
	"github.com/vk/taskgridgo/internal/testutil"
)

// TestErrorHandling_InvalidTaskFilesAreRejected verifies that problems in task
// files surface at start-up with the usage exit code and before any step runs.
func TestErrorHandling_InvalidTaskFilesAreRejected(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "syntax error",
			content: "task \"a\" {\n",
			wantMsg: "failed to parse",
		},
		{
			name: "unknown step kind",
			content: `
task "a" {
  step "shell" {
    run = "x"
  }
}
`,
			wantMsg: `unknown step kind "shell"`,
		},
		{
			name: "duplicate task",
			content: `
task "a" {}
task "a" {}
`,
			wantMsg: `task "a" is already registered`,
		},
		{
			name: "self dependency",
			content: `
task "a" {
  depends_on = ["a"]
}
`,
			wantMsg: "cyclic dependency",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := testutil.RunIntegrationTest(t, testutil.Harness{
				Files: map[string]string{"tasks.hcl": tc.content},
				Args:  []string{"--no-builtin", "a"},
			})

			assert.Equal(t, cli.ExitCodeUsage, result.ExitCode)
			assert.ErrorContains(t, result.Err, tc.wantMsg)
			assert.Empty(t, result.Process.Argvs())
		})
	}
}

// TestErrorHandling_CycleIsReportedBeforeAnythingRuns verifies that a
// prerequisite cycle fails start-up with the cycle path and no subprocess.
func TestErrorHandling_CycleIsReportedBeforeAnythingRuns(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, testutil.Harness{
		Files: map[string]string{"tasks.hcl": `
task "a" {
  depends_on = ["b"]
  step "exec" {
    run = "echo a"
  }
}

task "b" {
  depends_on = ["a"]
  step "exec" {
    run = "echo b"
  }
}
`},
		Args: []string{"--no-builtin", "a"},
	})

	assert.Equal(t, cli.ExitCodeUsage, result.ExitCode)
	assert.ErrorContains(t, result.Err, "cyclic dependency")
	assert.Empty(t, result.Process.Argvs())
}
