package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/taskgridgo/internal/app"
	"github.com/vk/taskgridgo/internal/cli"
	"github.com/vk/taskgridgo/internal/hcl_adapter"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Dir    string
	Stdout string
	Stderr string
	Err    error
	// ExitCode is 0 on success and the *cli.ExitError code otherwise.
	ExitCode int
	Process  *Process
}

// Harness describes one end-to-end invocation of the command line.
type Harness struct {
	// Files maps paths relative to the working directory to their content.
	Files map[string]string
	// Args follow the "-C <dir>" the harness adds itself.
	Args []string
	// Process records subprocesses; a fresh one is used when nil.
	Process *Process
	// Environ is the inherited environment. Nil means empty.
	Environ []string
}

// WriteFiles writes files below root, creating parent directories.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// RunIntegrationTest provides a standardized harness for running integration
// tests using a default background context.
func RunIntegrationTest(t *testing.T, h Harness) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, h)
}

// RunIntegrationTestWithContext runs the command line against a temporary
// working directory populated with h.Files.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, h Harness) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	WriteFiles(t, dir, h.Files)

	proc := h.Process
	if proc == nil {
		proc = &Process{}
	}
	environ := h.Environ
	if environ == nil {
		environ = []string{}
	}

	stdout, stderr := &SafeBuffer{}, &SafeBuffer{}
	args := append([]string{"-C", dir}, h.Args...)
	err := cli.Execute(ctx, args, stdout, stderr, hcl_adapter.NewLoader(), func(cfg *app.Config) {
		cfg.Process = proc
		cfg.Environ = environ
	})

	result := &HarnessResult{
		Dir:     dir,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Err:     err,
		Process: proc,
	}
	if exitErr, ok := err.(*cli.ExitError); ok {
		result.ExitCode = exitErr.Code
	}

	t.Cleanup(func() {
		if os.Getenv("TASKGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.Stderr)
		}
	})
	return result
}
