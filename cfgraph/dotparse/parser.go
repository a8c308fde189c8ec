package dotparse

import (
	"fmt"
	"strings"
)

// Graph is the generic, un-interpreted AST of a parsed DOT document. It
// carries no knowledge of this project's node/branch/value attribute
// vocabulary; that interpretation happens one layer up, in cfgraph's IR
// builder.
type Graph struct {
	Strict   bool
	Directed bool
	ID       string
	Stmts    []Stmt
}

// Stmt is one statement inside a graph or subgraph body.
type Stmt interface{ stmtNode() }

// NodeStmt declares (or re-declares, to merge attributes onto) a single
// node.
type NodeStmt struct {
	ID    string
	Attrs map[string]string
}

func (NodeStmt) stmtNode() {}

// EdgeStmt is a pair or chain edge: Endpoints has length >= 2, and for a
// chain "a -> b -> c" expands logically to the pairs (a,b) and (b,c), both
// carrying the same Attrs. EndpointIsNode reports, parallel to Endpoints,
// whether each endpoint was a bare node identifier (true) or a subgraph
// block (false, and thus ignored by downstream consumers per the DOT
// attribute vocabulary this project recognizes).
type EdgeStmt struct {
	Endpoints      []string
	EndpointIsNode []bool
	Attrs          map[string]string
}

func (EdgeStmt) stmtNode() {}

// ParseError reports a structurally invalid DOT document.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dot parse error at line %d: %s", e.Pos, e.Message)
}

// Parse lexes and parses a DOT document into its generic AST.
func Parse(src []byte) (*Graph, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseGraph()
}

type parser struct {
	lex *lexer
	cur token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	if p.cur.kind != k {
		return token{}, &ParseError{Pos: p.cur.line, Message: fmt.Sprintf("expected %s, got %q", what, p.cur.text)}
	}
	t := p.cur
	return t, p.advance()
}

func (p *parser) identEquals(s string) bool {
	return p.cur.kind == tokIdent && strings.EqualFold(p.cur.text, s)
}

func (p *parser) parseGraph() (*Graph, error) {
	g := &Graph{}
	if p.identEquals("strict") {
		g.Strict = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	switch {
	case p.identEquals("digraph"):
		g.Directed = true
	case p.identEquals("graph"):
		g.Directed = false
	default:
		return nil, &ParseError{Pos: p.cur.line, Message: fmt.Sprintf("expected graph or digraph, got %q", p.cur.text)}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind == tokIdent {
		g.ID = p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	stmts, err := p.parseStmtList()
	if err != nil {
		return nil, err
	}
	g.Stmts = stmts
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return g, nil
}

func (p *parser) parseStmtList() ([]Stmt, error) {
	var stmts []Stmt
	for p.cur.kind != tokRBrace && p.cur.kind != tokEOF {
		if p.cur.kind == tokSemicolon {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s...)
		}
		if p.cur.kind == tokSemicolon {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	return stmts, nil
}

// parseStmt parses one statement and returns the zero or more resulting
// Stmt nodes (a subgraph block flattens into many; an attr_stmt or
// graph-attribute assignment yields none).
func (p *parser) parseStmt() ([]Stmt, error) {
	switch {
	case p.identEquals("subgraph") || p.cur.kind == tokLBrace:
		return p.parseSubgraphAsStmts()
	case p.identEquals("graph") || p.identEquals("node") || p.identEquals("edge"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tokLBracket {
			if _, err := p.parseAttrList(); err != nil {
				return nil, err
			}
		}
		return nil, nil
	default:
		return p.parseNodeOrEdgeStmt()
	}
}

// parseSubgraphAsStmts parses a `subgraph [ID] { ... }` or bare `{ ... }`
// block and returns its inner statements, flattened into the parent list.
func (p *parser) parseSubgraphAsStmts() ([]Stmt, error) {
	if p.identEquals("subgraph") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tokIdent {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	stmts, err := p.parseStmtList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return stmts, nil
}

// parseEndpoint parses one edge endpoint: either a bare node id (optionally
// followed by a port, which is consumed and discarded) or a subgraph block.
// Returns the node id (empty if this was a subgraph) and whether it was a
// bare node identifier.
func (p *parser) parseEndpoint() (string, bool, error) {
	if p.identEquals("subgraph") || p.cur.kind == tokLBrace {
		if _, err := p.parseSubgraphAsStmts(); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	id, err := p.expect(tokIdent, "identifier")
	if err != nil {
		return "", false, err
	}
	// optional port: ':' ID [ ':' ID ]
	for p.cur.kind == tokColon {
		if err := p.advance(); err != nil {
			return "", false, err
		}
		if _, err := p.expect(tokIdent, "port identifier"); err != nil {
			return "", false, err
		}
	}
	return id.text, true, nil
}

func (p *parser) parseNodeOrEdgeStmt() ([]Stmt, error) {
	firstID, firstIsNode, err := p.parseEndpoint()
	if err != nil {
		return nil, err
	}

	if p.cur.kind == tokEdgeOp {
		endpoints := []string{firstID}
		isNode := []bool{firstIsNode}
		for p.cur.kind == tokEdgeOp {
			if err := p.advance(); err != nil {
				return nil, err
			}
			nextID, nextIsNode, err := p.parseEndpoint()
			if err != nil {
				return nil, err
			}
			endpoints = append(endpoints, nextID)
			isNode = append(isNode, nextIsNode)
		}
		attrs := map[string]string{}
		if p.cur.kind == tokLBracket {
			attrs, err = p.parseAttrList()
			if err != nil {
				return nil, err
			}
		}
		return []Stmt{EdgeStmt{Endpoints: endpoints, EndpointIsNode: isNode, Attrs: attrs}}, nil
	}

	if p.cur.kind == tokEquals {
		// graph-level `ID = ID` attribute assignment; not meaningful to
		// this project's vocabulary.
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokIdent, "identifier"); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if !firstIsNode {
		// A bare subgraph statement with no following edge op: nothing to
		// record at this level (its statements were already flattened in).
		return nil, nil
	}

	attrs := map[string]string{}
	if p.cur.kind == tokLBracket {
		var err error
		attrs, err = p.parseAttrList()
		if err != nil {
			return nil, err
		}
	}
	return []Stmt{NodeStmt{ID: firstID, Attrs: attrs}}, nil
}

func (p *parser) parseAttrList() (map[string]string, error) {
	attrs := map[string]string{}
	for p.cur.kind == tokLBracket {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.cur.kind != tokRBracket {
			key, err := p.expect(tokIdent, "attribute name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokEquals, "'='"); err != nil {
				return nil, err
			}
			val, err := p.expect(tokIdent, "attribute value")
			if err != nil {
				return nil, err
			}
			attrs[key.text] = val.text
			if p.cur.kind == tokComma || p.cur.kind == tokSemicolon {
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}
