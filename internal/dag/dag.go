package dag

import (
	"fmt"
	"sync"
)

// Graph is a directed graph of named nodes.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
	order []string
}

type node struct {
	id   string
	deps []*node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a node with the given ID. Adding an existing ID does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{id: id}
	g.order = append(g.order, id)
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// AddEdge records that toID depends on fromID. Both nodes must exist.
// Repeating an edge does nothing. Self edges are rejected here because they
// are cycles by construction.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return &CycleError{Path: []string{fromID, fromID}}
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	for _, d := range toNode.deps {
		if d == fromNode {
			return nil
		}
	}
	toNode.deps = append(toNode.deps, fromNode)
	return nil
}

// DetectCycles checks the whole graph and returns a *CycleError for the first
// cycle found, visiting nodes in insertion order.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	w := newWalker()
	for _, id := range g.order {
		if err := w.visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the closure of target in execution order: every dependency
// appears exactly once and before anything that depends on it, and target
// comes last. Dependencies are visited in the order they were declared.
func (g *Graph) Resolve(target string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[target]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", target)
	}
	w := newWalker()
	if err := w.visit(n); err != nil {
		return nil, err
	}
	return w.sorted, nil
}

// walker is a depth-first search with the classic three colours:
// permanent nodes are finished, nodes on the stack are in progress, and
// everything else is unvisited.
type walker struct {
	permanent map[string]bool
	onStack   map[string]int
	stack     []string
	sorted    []string
}

func newWalker() *walker {
	return &walker{
		permanent: make(map[string]bool),
		onStack:   make(map[string]int),
	}
}

func (w *walker) visit(n *node) error {
	if w.permanent[n.id] {
		return nil
	}
	if idx, ok := w.onStack[n.id]; ok {
		path := append([]string(nil), w.stack[idx:]...)
		return &CycleError{Path: append(path, n.id)}
	}

	w.onStack[n.id] = len(w.stack)
	w.stack = append(w.stack, n.id)

	for _, dep := range n.deps {
		if err := w.visit(dep); err != nil {
			return err
		}
	}

	w.stack = w.stack[:len(w.stack)-1]
	delete(w.onStack, n.id)
	w.permanent[n.id] = true
	w.sorted = append(w.sorted, n.id)
	return nil
}
