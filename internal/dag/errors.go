package dag

import "strings"

// CycleError reports a dependency cycle. Path lists the nodes along the
// cycle, starting and ending with the same node, following dependency edges
// from dependent to dependency.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}
