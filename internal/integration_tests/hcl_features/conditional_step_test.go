package hcl_features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/taskgridgo/internal/testutil"
)

const conditionalTasks = `
task "test" {
  option "race" {
    type    = bool
    default = true
  }
  option "vet" {
    type = bool
  }

  step "exec" {
    command = concat(["go", "test"], option.race ? ["-race"] : [], ["./..."])
  }
  step "exec" {
    run  = "go vet ./..."
    when = option.vet
  }
}
`

// TestHCLFeatures_ConditionalStep verifies that option values reach step
// expressions and that `when` skips a step.
func TestHCLFeatures_ConditionalStep(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "defaults",
			args: []string{"test"},
			want: []string{"go test -race ./..."},
		},
		{
			name: "race off and vet on",
			args: []string{"test", "--race=false", "--vet"},
			want: []string{"go test ./...", "go vet ./..."},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := testutil.RunIntegrationTest(t, testutil.Harness{
				Files: map[string]string{"tasks.hcl": conditionalTasks},
				Args:  append([]string{"--no-builtin"}, tc.args...),
			})

			require.NoError(t, result.Err)
			assert.Equal(t, tc.want, result.Process.Argvs())
		})
	}
}
