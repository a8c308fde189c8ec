package cfgraph

import (
	"context"
	"testing"
)

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register("greet", Adapt(func(_ context.Context, in string, _ *DependencyCache) (string, error) {
		return "hello " + in, nil
	}))
	r.Register("shout", Adapt(func(_ context.Context, in string, _ *DependencyCache) (string, error) {
		return in + "!", nil
	}))
	r.Register("echo", Adapt(func(_ context.Context, in string, _ *DependencyCache) (string, error) {
		return in, nil
	}))
	return r
}

func TestLowerFusesLinearChain(t *testing.T) {
	src := []byte(`digraph G {
		a [type=greet, start=true];
		b [type=shout];
		c [type=echo];
		a -> b -> c;
	}`)
	ir, err := FromDOT(src)
	if err != nil {
		t.Fatalf("FromDOT: %v", err)
	}
	plan, err := Lower(ir, testRegistry())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if len(plan.Tasks) != 1 {
		t.Fatalf("expected the whole chain fused into 1 task, got %d: %v", len(plan.Tasks), taskIDs(plan))
	}
	task := plan.Tasks[plan.Start]
	if len(task.Chain) != 3 {
		t.Fatalf("expected fused chain of 3 node types, got %d", len(task.Chain))
	}
	if !task.IsTerminating() {
		t.Fatalf("expected fused chain's terminal node to be terminating")
	}
}

func TestLowerDoesNotFuseIntoMultiplyReferencedSuccessor(t *testing.T) {
	// m is reachable from both x and y, so fusing x->m would hide that m
	// is also an independent entry point referenced elsewhere.
	src := []byte(`digraph G {
		a [type=greet, start=true];
		x [type=shout];
		y [type=shout];
		m [type=echo];
		a -> x;
		x -> m;
		y -> m;
	}`)
	ir, err := FromDOT(src)
	if err != nil {
		t.Fatalf("FromDOT: %v", err)
	}
	plan, err := Lower(ir, testRegistry())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	task := plan.Tasks[plan.Start]
	if len(task.Chain) != 2 {
		t.Fatalf("expected a fused with x only, got chain of %d", len(task.Chain))
	}
	if _, ok := plan.Tasks["m"]; !ok {
		t.Fatalf("expected m to remain its own task since it has in-degree 2, tasks: %v", taskIDs(plan))
	}
}

func TestLowerUnknownNodeType(t *testing.T) {
	src := []byte(`digraph G { a [type=nonexistent, start=true]; }`)
	ir, err := FromDOT(src)
	if err != nil {
		t.Fatalf("FromDOT: %v", err)
	}
	if _, err := Lower(ir, testRegistry()); err == nil {
		t.Fatalf("expected NodeTypeMissingError")
	}
}

func taskIDs(plan *ExecutionPlan) []string {
	ids := make([]string, 0, len(plan.Tasks))
	for id := range plan.Tasks {
		ids = append(ids, id)
	}
	return ids
}
