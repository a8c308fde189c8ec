package cfgraph

import (
	"context"
	"fmt"
)

// NodeType is the type-erased form every node body is reduced to once
// adapted: it receives the predecessor's output boxed as any, the shared
// DependencyCache, and returns its own output boxed as any (or an error).
// A Registry stores NodeTypes under the names DOT node `type` attributes
// reference.
type NodeType func(ctx context.Context, input any, deps *DependencyCache) (any, error)

// Adapt lifts a concretely-typed node body into a NodeType, performing the
// input type assertion the generated Rust glue would otherwise inject. A is
// the type this node expects its predecessor to have produced; R is the
// type it produces. A node at the graph's start, whose input comes from the
// caller of Run/RunGraph rather than a predecessor, still uses Adapt with A
// set to whatever the caller is expected to pass.
func Adapt[A, R any](fn func(ctx context.Context, input A, deps *DependencyCache) (R, error)) NodeType {
	return func(ctx context.Context, input any, deps *DependencyCache) (any, error) {
		typed, ok := input.(A)
		if !ok {
			var zero A
			return nil, &DependencyTypeMismatchError{
				Name:     "<node input>",
				Expected: typeName(zero),
				Actual:   typeName(input),
			}
		}
		out, err := fn(ctx, typed, deps)
		if err != nil {
			var zero R
			return zero, err
		}
		return out, nil
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

// Match is the payload a Matcher-branch node body returns: Key selects
// which successor arm fires (falling back to the "" default arm if no exact
// key matches), and Value is handed to that successor as its input.
type Match[V any] struct {
	Key   string
	Value V
}

func (m Match[V]) matchKey() string { return m.Key }
func (m Match[V]) matchValue() any  { return m.Value }

// Result is the payload a ResultMatcher-branch node body returns: exactly
// one of Ok or Err is meaningful, selected by IsErr, and is handed to the
// corresponding successor list as input.
type Result[O, E any] struct {
	IsErr bool
	Ok    O
	Err   E
}

func (r Result[O, E]) isResultErr() bool { return r.IsErr }
func (r Result[O, E]) okValue() any      { return r.Ok }
func (r Result[O, E]) errValue() any     { return r.Err }

// matchOutput is implemented by Match[V] for any V, letting the driver read
// a Matcher node's chosen key and payload without knowing V.
type matchOutput interface {
	matchKey() string
	matchValue() any
}

// resultOutput is implemented by Result[O, E] for any O, E, letting the
// driver read a ResultMatcher node's variant without knowing O or E.
type resultOutput interface {
	isResultErr() bool
	okValue() any
	errValue() any
}

// Registry maps node-type names to their NodeType implementation and
// whether that implementation should be dispatched onto the BlockingPool
// rather than run inline in the task goroutine. A node type is blocking by
// default, matching a declaration with no NONBLOCKING tag; pass Cooperative()
// to run it directly on the task goroutine instead.
type Registry struct {
	entries map[string]registryEntry
}

type registryEntry struct {
	nodeType NodeType
	blocking bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]registryEntry{}}
}

// RegisterOption configures one Register call.
type RegisterOption func(*registryEntry)

// Cooperative marks a node type's body as safe to run directly on the task
// goroutine rather than dispatched onto the BlockingPool. A node type
// registered with no options is blocking by default, since most node bodies
// do I/O or other work unsafe to run inline on the task goroutine;
// Cooperative opts a specific registration out of worker-pool dispatch.
func Cooperative() RegisterOption {
	return func(e *registryEntry) { e.blocking = false }
}

// Register adds name to the registry with the given implementation.
// Registrations are blocking by default; pass Cooperative() to run this
// node type's body directly on the task goroutine instead of dispatching it
// onto the BlockingPool.
func (r *Registry) Register(name string, nt NodeType, opts ...RegisterOption) {
	entry := registryEntry{nodeType: nt, blocking: true}
	for _, opt := range opts {
		opt(&entry)
	}
	r.entries[name] = entry
}

func (r *Registry) lookup(name string) (NodeType, bool, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, false, &NodeTypeMissingError{NodeTypeName: name}
	}
	return e.nodeType, e.blocking, nil
}
