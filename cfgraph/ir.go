package cfgraph

// BranchMode selects how a node's output is turned into zero or more
// successor spawns. It is modeled as a sum type over three cases rather
// than an inheritance hierarchy: each case carries exactly the successor
// shape it needs.
type BranchMode int

const (
	// Parallel spawns every listed successor with the node's output (or
	// terminates if the list is empty). All successors receive the same
	// value; it is not deep-copied, so pointers, slices and maps in it are
	// shared between branches.
	Parallel BranchMode = iota

	// Matcher picks exactly one successor keyed by the node's output match
	// key, falling back to a default arm (key "") if present.
	Matcher

	// ResultMatcher picks the ok or err successor list based on the node's
	// output variant, then applies the Parallel spawn rule to that list.
	ResultMatcher
)

func (m BranchMode) String() string {
	switch m {
	case Parallel:
		return "parallel"
	case Matcher:
		return "matcher"
	case ResultMatcher:
		return "resultmatcher"
	default:
		return "unknown"
	}
}

// defaultMatchValue is the edge value that designates a Matcher node's
// default arm.
const defaultMatchValue = ""

// NodeRecord is the parsed, typed view of one DOT node statement.
type NodeRecord struct {
	// ID is this node's identifier; unique within its Graph.
	ID string

	// NodeTypeName is the name the node resolves to in a Registry.
	NodeTypeName string

	// Branch selects which of the successor payload fields is populated.
	Branch BranchMode

	// ParallelSuccessors holds ordered successor ids when Branch ==
	// Parallel.
	ParallelSuccessors []string

	// MatchSuccessors maps an edge value (or "" for the default arm) to a
	// successor id when Branch == Matcher.
	MatchSuccessors map[string]string

	// OKSuccessors and ErrSuccessors hold ordered successor ids for the two
	// variants when Branch == ResultMatcher.
	OKSuccessors  []string
	ErrSuccessors []string
}

// IsTerminating reports whether this node has no successors under its
// branch mode, making its payload a candidate graph result.
func (n *NodeRecord) IsTerminating() bool {
	switch n.Branch {
	case Parallel:
		return len(n.ParallelSuccessors) == 0
	case Matcher:
		return len(n.MatchSuccessors) == 0
	case ResultMatcher:
		return len(n.OKSuccessors) == 0 && len(n.ErrSuccessors) == 0
	default:
		return true
	}
}

// addSuccessor records one outgoing edge under the given match value. value
// is ignored for Parallel nodes and must be "ok"/"err" (case already
// normalized by the caller) for ResultMatcher nodes.
func (n *NodeRecord) addSuccessor(value, dest string) error {
	switch n.Branch {
	case Parallel:
		n.ParallelSuccessors = append(n.ParallelSuccessors, dest)
	case Matcher:
		if n.MatchSuccessors == nil {
			n.MatchSuccessors = map[string]string{}
		}
		if _, exists := n.MatchSuccessors[value]; exists && value == defaultMatchValue {
			return &SchemaError{Code: "DUPLICATE_DEFAULT", NodeID: n.ID, Message: "node already has a default matcher arm"}
		}
		n.MatchSuccessors[value] = dest
	case ResultMatcher:
		switch value {
		case "ok":
			n.OKSuccessors = append(n.OKSuccessors, dest)
		case "err":
			n.ErrSuccessors = append(n.ErrSuccessors, dest)
		default:
			return &SchemaError{Code: "BAD_RESULTMATCH_VALUE", NodeID: n.ID, Message: "edge value must be ok or err, got " + value}
		}
	}
	return nil
}

// Graph is the parsed, typed intermediate representation of a DOT source
// document: the Graph IR described in the data model.
type Graph struct {
	// Name is the DOT graph's identifier, defaulting to "Graph" when the
	// source graph is anonymous.
	Name string

	// Nodes maps node id to its parsed record. Only nodes carrying a type
	// attribute appear here; untyped nodes are ignored silently.
	Nodes map[string]*NodeRecord

	// Start is the id of the node carrying the start attribute.
	Start string

	// Source is the original DOT text, retained verbatim for introspection.
	Source string
}

// StartNode returns the graph's designated start node.
func (g *Graph) StartNode() (*NodeRecord, error) {
	n, ok := g.Nodes[g.Start]
	if !ok {
		return nil, &SchemaError{Code: "MISSING_START", Message: "no node carries the start attribute"}
	}
	return n, nil
}

// Validate checks the IR-level invariants that do not require a Registry:
// exactly one start node, every successor id exists, and well-formed
// matcher/result-matcher payloads (already enforced incrementally during
// parsing). It is called once after parsing completes.
func (g *Graph) Validate() error {
	if g.Start == "" {
		return &SchemaError{Code: "MISSING_START", Message: "no node carries the start attribute"}
	}
	if _, ok := g.Nodes[g.Start]; !ok {
		return &SchemaError{Code: "MISSING_START", NodeID: g.Start, Message: "declared start node does not exist"}
	}
	for id, n := range g.Nodes {
		for _, dest := range n.allSuccessors() {
			if _, ok := g.Nodes[dest]; !ok {
				return &SchemaError{Code: "DANGLING_SUCCESSOR", NodeID: id, Message: "successor " + dest + " does not exist"}
			}
		}
	}
	return nil
}

// allSuccessors returns every destination id this node can reach, in no
// particular cross-mode order; used only for dangling-edge validation.
func (n *NodeRecord) allSuccessors() []string {
	switch n.Branch {
	case Parallel:
		return n.ParallelSuccessors
	case Matcher:
		out := make([]string, 0, len(n.MatchSuccessors))
		for _, dest := range n.MatchSuccessors {
			out = append(out, dest)
		}
		return out
	case ResultMatcher:
		out := make([]string, 0, len(n.OKSuccessors)+len(n.ErrSuccessors))
		out = append(out, n.OKSuccessors...)
		out = append(out, n.ErrSuccessors...)
		return out
	default:
		return nil
	}
}
