package emit

import "context"

// Emitter receives and processes observability events from graph execution.
//
// Implementations should be:
//   - Non-blocking: avoid slowing down task execution
//   - Thread-safe: called concurrently from multiple task goroutines
//   - Resilient: handle failures gracefully (don't crash the run)
type Emitter interface {
	// Emit sends a single observability event. Emit should not panic or
	// block; errors should be logged internally by the implementation.
	Emit(event Event)

	// EmitBatch sends multiple events in one operation. Returns error only
	// on catastrophic failures; individual event failures should be logged
	// but not returned.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all buffered events are sent, or ctx expires.
	Flush(ctx context.Context) error
}
