package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/vk/taskgridgo/internal/procexec"
)

// Process is a procexec.Process that records commands instead of starting
// them. ExitCodes maps a space-joined argv to the exit code to report; Output
// maps it to what the command writes to stdout.
type Process struct {
	ExitCodes map[string]int
	Output    map[string]string

	mu    sync.Mutex
	calls []procexec.Command
}

// Run implements procexec.Process.
func (p *Process) Run(_ context.Context, cmd procexec.Command) (procexec.Result, error) {
	line := strings.Join(cmd.Argv, " ")

	p.mu.Lock()
	p.calls = append(p.calls, cmd)
	code := p.ExitCodes[line]
	out := p.Output[line]
	p.mu.Unlock()

	if out != "" && cmd.Stdout != nil {
		_, _ = cmd.Stdout.Write([]byte(out))
	}
	return procexec.Result{ExitCode: code}, nil
}

// Calls returns the recorded commands in order.
func (p *Process) Calls() []procexec.Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]procexec.Command(nil), p.calls...)
}

// Argvs returns the recorded commands as space-joined argv strings.
func (p *Process) Argvs() []string {
	calls := p.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, strings.Join(c.Argv, " "))
	}
	return out
}
