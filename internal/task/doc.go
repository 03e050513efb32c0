// Package task defines the domain model of the task runner: task definitions,
// their typed options, the execution context handed to every task body, the
// per-run report, and the error kinds surfaced by registration, resolution
// and execution.
//
// The package is deliberately free of orchestration logic. Ordering and
// deduplication live in the runner package; this package only describes what
// a task is and what happened when it ran.
package task
