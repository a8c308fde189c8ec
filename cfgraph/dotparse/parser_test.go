package dotparse

import "testing"

func TestParseSimpleChain(t *testing.T) {
	src := `digraph G {
		a [type=greet, start=true];
		b [type=shout];
		a -> b;
	}`
	g, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !g.Directed {
		t.Fatalf("expected digraph to parse as Directed")
	}
	if g.ID != "G" {
		t.Fatalf("expected graph id G, got %q", g.ID)
	}

	var nodes []NodeStmt
	var edges []EdgeStmt
	for _, s := range g.Stmts {
		switch v := s.(type) {
		case NodeStmt:
			nodes = append(nodes, v)
		case EdgeStmt:
			edges = append(edges, v)
		}
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 node statements, got %d", len(nodes))
	}
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge statement, got %d", len(edges))
	}
	if edges[0].Endpoints[0] != "a" || edges[0].Endpoints[1] != "b" {
		t.Fatalf("unexpected edge endpoints: %v", edges[0].Endpoints)
	}
}

func TestParseEdgeChainExpandsToPairs(t *testing.T) {
	src := `digraph G { a -> b -> c [value=ok]; }`
	g, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(g.Stmts) != 1 {
		t.Fatalf("expected one edge statement for the whole chain, got %d", len(g.Stmts))
	}
	edge := g.Stmts[0].(EdgeStmt)
	if len(edge.Endpoints) != 3 {
		t.Fatalf("expected 3 chained endpoints, got %d", len(edge.Endpoints))
	}
	if edge.Attrs["value"] != "ok" {
		t.Fatalf("expected chain-wide attrs to include value=ok, got %v", edge.Attrs)
	}
}

func TestParseSubgraphFlattens(t *testing.T) {
	src := `digraph G {
		subgraph cluster_0 {
			a [type=greet];
			b [type=shout];
		}
		a -> b;
	}`
	g, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	var nodeCount int
	for _, s := range g.Stmts {
		if _, ok := s.(NodeStmt); ok {
			nodeCount++
		}
	}
	if nodeCount != 2 {
		t.Fatalf("expected subgraph statements flattened into parent, got %d node stmts", nodeCount)
	}
}

func TestParseQuotedIdentifierWithSpaces(t *testing.T) {
	src := `digraph G { "node one" [type="greet node"]; }`
	g, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	ns := g.Stmts[0].(NodeStmt)
	if ns.ID != "node one" {
		t.Fatalf("expected quoted id to preserve spaces, got %q", ns.ID)
	}
	if ns.Attrs["type"] != "greet node" {
		t.Fatalf("expected quoted attr value to preserve spaces, got %q", ns.Attrs["type"])
	}
}

func TestParseRejectsUnterminatedBlock(t *testing.T) {
	src := `digraph G { a [type=greet];`
	if _, err := Parse([]byte(src)); err == nil {
		t.Fatalf("expected parse error for unterminated graph block")
	}
}

func TestParseCommentsAreIgnored(t *testing.T) {
	src := `// leading comment
	digraph G {
		a [type=greet]; # trailing comment style
		/* block
		   comment */
		b [type=shout];
		a -> b;
	}`
	if _, err := Parse([]byte(src)); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
}
