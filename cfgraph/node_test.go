package cfgraph

import (
	"context"
	"testing"
)

func TestAdaptTypeAssertsInput(t *testing.T) {
	nt := Adapt(func(_ context.Context, in int, _ *DependencyCache) (int, error) {
		return in * 2, nil
	})
	out, err := nt(context.Background(), 21, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(int) != 42 {
		t.Fatalf("expected 42, got %v", out)
	}
}

func TestAdaptRejectsWrongInputType(t *testing.T) {
	nt := Adapt(func(_ context.Context, in int, _ *DependencyCache) (int, error) {
		return in, nil
	})
	_, err := nt(context.Background(), "not an int", nil)
	if err == nil {
		t.Fatalf("expected a type mismatch error")
	}
	if _, ok := err.(*DependencyTypeMismatchError); !ok {
		t.Fatalf("expected *DependencyTypeMismatchError, got %T", err)
	}
}

func TestMatchImplementsMatchOutput(t *testing.T) {
	m := Match[int]{Key: "left", Value: 7}
	var mo matchOutput = m
	if mo.matchKey() != "left" {
		t.Fatalf("unexpected key %q", mo.matchKey())
	}
	if mo.matchValue().(int) != 7 {
		t.Fatalf("unexpected value %v", mo.matchValue())
	}
}

func TestResultImplementsResultOutput(t *testing.T) {
	ok := Result[string, error]{IsErr: false, Ok: "done"}
	var ro resultOutput = ok
	if ro.isResultErr() {
		t.Fatalf("expected ok result")
	}
	if ro.okValue().(string) != "done" {
		t.Fatalf("unexpected ok value %v", ro.okValue())
	}
}

func TestRegistryLookupMissing(t *testing.T) {
	r := NewRegistry()
	if _, _, err := r.lookup("missing"); err == nil {
		t.Fatalf("expected error for unregistered node type")
	}
}

func TestRegistryDefaultsToBlocking(t *testing.T) {
	r := NewRegistry()
	r.Register("io", Adapt(func(_ context.Context, in int, _ *DependencyCache) (int, error) {
		return in, nil
	}))
	_, blocking, err := r.lookup("io")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !blocking {
		t.Fatalf("expected a registration with no options to default to blocking")
	}
}

func TestRegistryCooperativeOptOut(t *testing.T) {
	r := NewRegistry()
	r.Register("pure", Adapt(func(_ context.Context, in int, _ *DependencyCache) (int, error) {
		return in, nil
	}), Cooperative())
	_, blocking, err := r.lookup("pure")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if blocking {
		t.Fatalf("expected Cooperative() to opt out of blocking dispatch")
	}
}
