// Package emit provides event emission and observability for compiled graph
// execution: every task dispatched by the driver reports its lifecycle
// through an Emitter so the run can be watched, logged, or traced without
// the driver itself depending on any particular observability backend.
package emit

// Event represents one observability event emitted during a graph run.
//
// Events are emitted to an Emitter which can:
//   - Log to stdout/stderr
//   - Send to OpenTelemetry
//   - Store in time-series databases
//   - Trigger alerts
type Event struct {
	// RunID identifies the graph run that emitted this event.
	RunID string

	// TaskID identifies which task emitted this event. Empty for run-level
	// events (run start, run complete).
	TaskID string

	// Msg is a short machine-matchable event name, e.g. "task_start",
	// "task_end", "task_error", "run_start", "run_complete".
	Msg string

	// Meta contains additional structured data specific to this event.
	// Keys set by the driver:
	//   - "duration_ms": task execution duration in milliseconds (task_end)
	//   - "error": error details (task_error, run_complete)
	Meta map[string]interface{}
}
