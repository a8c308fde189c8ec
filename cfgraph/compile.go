package cfgraph

import (
	"strconv"
	"strings"

	"github.com/ignirtoq/conflagrate-go/cfgraph/dotparse"
)

// attribute keys and values this project's DOT vocabulary recognizes.
const (
	attrType   = "type"
	attrStart  = "start"
	attrBranch = "branch"
	attrValue  = "value"

	branchParallel      = "parallel"
	branchMatcher       = "matcher"
	branchResultMatcher = "resultmatcher"
)

// FromDOT parses src and builds a validated Graph IR from it. Nodes without
// a type attribute are dropped silently: they exist in the DOT source only
// for documentation or layout purposes and never participate in execution.
func FromDOT(src []byte) (*Graph, error) {
	ast, err := dotparse.Parse(src)
	if err != nil {
		return nil, translateParseErr(err)
	}

	g := &Graph{
		Name:   ast.ID,
		Nodes:  map[string]*NodeRecord{},
		Source: string(src),
	}
	if g.Name == "" {
		g.Name = "Graph"
	}

	for _, stmt := range ast.Stmts {
		ns, ok := stmt.(dotparse.NodeStmt)
		if !ok {
			continue
		}
		if err := mergeNodeStmt(g, ns); err != nil {
			return nil, err
		}
	}

	for _, stmt := range ast.Stmts {
		es, ok := stmt.(dotparse.EdgeStmt)
		if !ok {
			continue
		}
		if err := applyEdgeStmt(g, es); err != nil {
			return nil, err
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func mergeNodeStmt(g *Graph, ns dotparse.NodeStmt) error {
	typeName, hasType := ns.Attrs[attrType]
	if !hasType {
		return nil
	}

	rec, exists := g.Nodes[ns.ID]
	if !exists {
		mode, err := parseBranchMode(ns.Attrs[attrBranch])
		if err != nil {
			return &SchemaError{Code: "BAD_BRANCH_MODE", NodeID: ns.ID, Message: err.Error()}
		}
		rec = &NodeRecord{ID: ns.ID, NodeTypeName: typeName, Branch: mode}
		g.Nodes[ns.ID] = rec
	} else if rec.NodeTypeName != typeName {
		return &SchemaError{Code: "INCONSISTENT_NODE_TYPE", NodeID: ns.ID,
			Message: "node redeclared with a different type: " + rec.NodeTypeName + " vs " + typeName}
	}

	if isTrueAttr(ns.Attrs[attrStart]) {
		if g.Start != "" && g.Start != ns.ID {
			return &SchemaError{Code: "MULTIPLE_START", NodeID: ns.ID, Message: "graph already has a start node: " + g.Start}
		}
		g.Start = ns.ID
	}
	return nil
}

// parseBranchMode defaults to Parallel when the branch attribute is absent,
// matching a plain linear or fan-out node.
func parseBranchMode(raw string) (BranchMode, error) {
	switch strings.ToLower(raw) {
	case "", branchParallel:
		return Parallel, nil
	case branchMatcher:
		return Matcher, nil
	case branchResultMatcher:
		return ResultMatcher, nil
	default:
		return 0, errUnknownBranchMode(raw)
	}
}

type errUnknownBranchMode string

func (e errUnknownBranchMode) Error() string {
	return "unrecognized branch attribute: " + string(e)
}

func isTrueAttr(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// applyEdgeStmt expands a (possibly chained) edge statement into pairwise
// successor links on the source node of each pair. Edges whose source node
// carries no type attribute (and thus never entered g.Nodes) are rejected:
// an edge can only originate from a node that participates in execution.
func applyEdgeStmt(g *Graph, es dotparse.EdgeStmt) error {
	value := normalizeEdgeValue(es.Attrs[attrValue])
	for i := 0; i+1 < len(es.Endpoints); i++ {
		if !es.EndpointIsNode[i] || !es.EndpointIsNode[i+1] {
			continue
		}
		srcID, destID := es.Endpoints[i], es.Endpoints[i+1]
		src, ok := g.Nodes[srcID]
		if !ok {
			return &SchemaError{Code: "EDGE_FROM_UNTYPED_NODE", NodeID: srcID,
				Message: "edge originates from a node with no type attribute"}
		}
		if err := src.addSuccessor(value, destID); err != nil {
			return err
		}
	}
	return nil
}

// normalizeEdgeValue lowercases ok/err-style values so DOT authors can write
// "OK"/"Err"/"err" interchangeably; Matcher keys are left case-sensitive
// since they are arbitrary user-chosen strings.
func normalizeEdgeValue(v string) string {
	lower := strings.ToLower(v)
	if lower == "ok" || lower == "err" {
		return lower
	}
	return v
}

func translateParseErr(err error) error {
	switch e := err.(type) {
	case *dotparse.ParseError:
		return &ParseError{Pos: e.Pos, Message: e.Message}
	case *dotparse.LexError:
		return &ParseError{Pos: e.Pos, Message: e.Message}
	default:
		return &ParseError{Message: err.Error()}
	}
}
