package cfgraph

import (
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/ignirtoq/conflagrate-go/cfgraph/emit"
)

// config collects every tunable a CompiledGraph run can be configured with.
// It is built up by applying Options left to right, matching the
// functional-options pattern used throughout this project's ambient stack.
type config struct {
	blockingWorkers int
	exactlyOnce     bool
	tracer          trace.Tracer
	emitter         emit.Emitter
	registry        *ProviderRegistry
	metrics         *RunMetrics
}

func defaultConfig() *config {
	return &config{
		blockingWorkers: 8,
		tracer:          trace.NewNoopTracerProvider().Tracer("cfgraph"),
		emitter:         emit.NullEmitter{},
		registry:        NewProviderRegistry(),
	}
}

// Option configures a CompiledGraph at Compile time.
type Option func(*config) error

// WithBlockingWorkers bounds the BlockingPool size used for node types
// registered without Cooperative(). Must be positive.
func WithBlockingWorkers(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("cfgraph: WithBlockingWorkers requires n > 0, got %d", n)
		}
		c.blockingWorkers = n
		return nil
	}
}

// WithExactlyOnceDependencies switches the per-run DependencyCache to
// singleflight-backed construction, guaranteeing each provider runs at most
// once even under a concurrent first request from multiple branches.
func WithExactlyOnceDependencies() Option {
	return func(c *config) error {
		c.exactlyOnce = true
		return nil
	}
}

// WithTracer attaches an OpenTelemetry tracer used to emit one span per
// executed task.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) error {
		if t == nil {
			return fmt.Errorf("cfgraph: WithTracer requires a non-nil tracer")
		}
		c.tracer = t
		return nil
	}
}

// WithEmitter attaches an Emitter that receives one Event per task
// start/finish/error.
func WithEmitter(e emit.Emitter) Option {
	return func(c *config) error {
		if e == nil {
			return fmt.Errorf("cfgraph: WithEmitter requires a non-nil emitter")
		}
		c.emitter = e
		return nil
	}
}

// WithDependencyProviders attaches the ProviderRegistry used to resolve
// dependencies requested by node bodies via Get.
func WithDependencyProviders(r *ProviderRegistry) Option {
	return func(c *config) error {
		if r == nil {
			return fmt.Errorf("cfgraph: WithDependencyProviders requires a non-nil registry")
		}
		c.registry = r
		return nil
	}
}

// WithMetrics attaches a RunMetrics collector tasks report latency and
// spawn counts to. Without this option, metrics recording is skipped
// entirely (not merely discarded into a disabled collector).
func WithMetrics(m *RunMetrics) Option {
	return func(c *config) error {
		if m == nil {
			return fmt.Errorf("cfgraph: WithMetrics requires a non-nil RunMetrics")
		}
		c.metrics = m
		return nil
	}
}
