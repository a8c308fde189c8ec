package cfgraph

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Provider constructs the singleton value for one named dependency the
// first time it is requested. A Provider is called at most once per
// DependencyCache under ExactlyOnce mode; under the default mode it may
// race with itself, with the first write to the cache winning (see
// DependencyCache doc).
type Provider func(ctx context.Context) (any, error)

// ProviderRegistry maps a dependency name to the Provider that builds it.
// It is read-only once construction begins and is safe to share across
// concurrently running graphs.
type ProviderRegistry struct {
	providers map[string]Provider
}

// NewProviderRegistry returns an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: map[string]Provider{}}
}

// Register adds or replaces the Provider for name.
func (r *ProviderRegistry) Register(name string, p Provider) {
	r.providers[name] = p
}

// DependencyCache is a type-erased, insertion-ordered singleton cache keyed
// by provider name. It is shared by every task in a single graph run (one
// per RunGraph call), so all nodes that ask for the same name observe the
// same constructed value.
//
// Under the default locking discipline, two goroutines racing to
// first-construct the same name may both invoke the provider, with
// whichever write reaches the map first winning; this mirrors the
// dependency cache's documented "first write wins" race rather than
// serializing every read behind a single lock for the whole call. Pass
// ExactlyOnce to the constructor to route construction through
// singleflight.Group instead, collapsing concurrent first-requests for the
// same name into one provider invocation.
type DependencyCache struct {
	registry    *ProviderRegistry
	mu          sync.Mutex
	values      map[string]any
	order       []string
	exactlyOnce bool
	flight      singleflight.Group
}

// NewDependencyCache returns an empty cache backed by registry.
func NewDependencyCache(registry *ProviderRegistry) *DependencyCache {
	return &DependencyCache{registry: registry, values: map[string]any{}}
}

// ExactlyOnce enables singleflight-backed construction, guaranteeing each
// provider runs at most once even under concurrent first requests.
func ExactlyOnce() func(*DependencyCache) {
	return func(c *DependencyCache) { c.exactlyOnce = true }
}

// NewDependencyCacheWithOptions applies the given cache options to a new
// cache.
func NewDependencyCacheWithOptions(registry *ProviderRegistry, opts ...func(*DependencyCache)) *DependencyCache {
	c := NewDependencyCache(registry)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get returns the raw cached value for name, invoking its provider if this
// is the first request.
func (c *DependencyCache) get(ctx context.Context, name string) (any, error) {
	c.mu.Lock()
	if v, ok := c.values[name]; ok {
		c.mu.Unlock()
		return v, nil
	}
	provider, ok := c.registry.providers[name]
	c.mu.Unlock()
	if !ok {
		return nil, &DependencyMissingError{Name: name}
	}

	if c.exactlyOnce {
		v, err, _ := c.flight.Do(name, func() (any, error) {
			c.mu.Lock()
			if v, ok := c.values[name]; ok {
				c.mu.Unlock()
				return v, nil
			}
			c.mu.Unlock()
			built, err := provider(ctx)
			if err != nil {
				return nil, err
			}
			c.store(name, built)
			return built, nil
		})
		return v, err
	}

	built, err := provider(ctx)
	if err != nil {
		return nil, err
	}
	c.store(name, built)
	return built, nil
}

func (c *DependencyCache) store(name string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.values[name]; exists {
		return
	}
	c.values[name] = v
	c.order = append(c.order, name)
}

// Close releases every constructed dependency that implements io.Closer (or
// a Close() error method), in reverse insertion order, so dependencies that
// were built on top of earlier ones are torn down first.
func (c *DependencyCache) Close() error {
	c.mu.Lock()
	order := append([]string(nil), c.order...)
	values := c.values
	c.mu.Unlock()

	var firstErr error
	for i := len(order) - 1; i >= 0; i-- {
		v := values[order[i]]
		closer, ok := v.(interface{ Close() error })
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing dependency %q: %w", order[i], err)
		}
	}
	return firstErr
}

// Get resolves the named dependency and asserts it to type V, constructing
// it via its registered Provider on first use within this cache.
func Get[V any](ctx context.Context, cache *DependencyCache, name string) (V, error) {
	var zero V
	raw, err := cache.get(ctx, name)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(V)
	if !ok {
		return zero, &DependencyTypeMismatchError{Name: name, Expected: fmt.Sprintf("%T", zero), Actual: fmt.Sprintf("%T", raw)}
	}
	return v, nil
}
