package emit

import "context"

// NullEmitter discards every event. It is the default when no Emitter is
// configured, so a graph run pays no observability overhead unless asked.
type NullEmitter struct{}

func (NullEmitter) Emit(Event) {}

func (NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

func (NullEmitter) Flush(context.Context) error { return nil }
