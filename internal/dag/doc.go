// Package dag models the prerequisite graph of the task runner. Nodes are
// task names; an edge from A to B means B requires A. Edges keep the order in
// which they were declared so that resolution is deterministic and follows
// the order prerequisites are listed in.
package dag
