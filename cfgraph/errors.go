// Package cfgraph compiles DOT-described control-flow graphs into an
// executable plan and drives that plan through a concurrent, asynchronous
// runtime kernel.
package cfgraph

import "fmt"

// ParseError indicates the DOT source could not be parsed.
type ParseError struct {
	// Pos is a 1-indexed line number in the source where parsing failed.
	Pos int

	// Message describes what the parser expected vs. found.
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("graph parse error at line %d: %s", e.Pos, e.Message)
}

// SchemaError indicates a structurally valid DOT document that violates one
// of the graph's invariants (missing or multiple start, dangling successor,
// edge from an untyped node, node redeclared with a different type,
// malformed branch/matcher value). A node id declared twice with the same
// type is merged rather than rejected, and the output types of terminating
// nodes are not compared.
type SchemaError struct {
	// Code is a short machine-readable reason, e.g. "MISSING_START".
	Code string

	// NodeID names the offending node, when applicable.
	NodeID string

	// Message is the human-readable description.
	Message string
}

func (e *SchemaError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("graph schema error [%s] at node %q: %s", e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("graph schema error [%s]: %s", e.Code, e.Message)
}

// NodeTypeMissingError indicates a node referenced a node-type name that was
// never registered with the Registry used to lower the graph.
type NodeTypeMissingError struct {
	NodeID       string
	NodeTypeName string
}

func (e *NodeTypeMissingError) Error() string {
	return fmt.Sprintf("node %q references unregistered node type %q", e.NodeID, e.NodeTypeName)
}

// DependencyMissingError indicates a node or provider asked the
// DependencyCache for a provider name with no registration.
type DependencyMissingError struct {
	Name string
}

func (e *DependencyMissingError) Error() string {
	return fmt.Sprintf("dependency %q has no registered provider", e.Name)
}

// DependencyTypeMismatchError indicates a dependency was resolved but the
// stored value's type does not match the type requested by the caller. Adapt
// also returns it, with Name "<node input>", when a node's input does not
// have the type its body expects.
type DependencyTypeMismatchError struct {
	Name     string
	Expected string
	Actual   string
}

func (e *DependencyTypeMismatchError) Error() string {
	return fmt.Sprintf("dependency %q: expected type %s, cache holds %s", e.Name, e.Expected, e.Actual)
}

// RecvClosedError indicates RunGraph awaited its result channel after the
// BranchTracker was abandoned without ever sending a value (no terminating
// branch was ever reached).
type RecvClosedError struct{}

func (e *RecvClosedError) Error() string {
	return "run_graph: result channel closed without a terminal value"
}

// TaskPanicError wraps a recovered panic from a node-type body so it can be
// delivered through the BranchTracker as an ordinary error instead of
// leaving the graph waiting forever.
type TaskPanicError struct {
	NodeID string
	Recovered any
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("node %q panicked: %v", e.NodeID, e.Recovered)
}

// BlockingPanicError wraps a panic recovered from inside a BlockingPool's
// worker goroutine. It carries no NodeID since BlockingPool has no notion of
// the task that submitted fn; runChain rewraps it as a TaskPanicError once
// it knows which task was running.
type BlockingPanicError struct {
	Recovered any
}

func (e *BlockingPanicError) Error() string {
	return fmt.Sprintf("blocking pool worker panicked: %v", e.Recovered)
}
