package task

import (
	"time"
)

// State is the lifecycle of a task within one run.
type State int

const (
	Pending State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepKind identifies what a recorded step did.
type StepKind string

const (
	StepExec   StepKind = "exec"
	StepRemove StepKind = "remove"
	StepMkdir  StepKind = "mkdir"
)

// StepRecord is the outcome of a single step.
type StepRecord struct {
	Kind     StepKind
	Argv     []string
	Dir      string
	ExitCode int
	Output   []byte
	Duration time.Duration
}

// TaskRecord is the outcome of a single task body within a run.
type TaskRecord struct {
	Name     string
	Options  Options
	State    State
	Steps    []StepRecord
	Messages []string
	Err      error

	failure *StepFailure
}

// Report lists the tasks of one run in execution order.
type Report struct {
	Tasks []*TaskRecord
}

// Task returns the record of the named task, if it ran.
func (r *Report) Task(name string) (*TaskRecord, bool) {
	if r == nil {
		return nil, false
	}
	for _, rec := range r.Tasks {
		if rec.Name == name {
			return rec, true
		}
	}
	return nil, false
}

// Order returns the names of the tasks in the order they ran.
func (r *Report) Order() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Tasks))
	for _, rec := range r.Tasks {
		names = append(names, rec.Name)
	}
	return names
}

// Failure returns the step failure recorded for this task, if any.
func (t *TaskRecord) Failure() *StepFailure {
	return t.failure
}
