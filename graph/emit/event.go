// Package emit provides observability events for workflow execution.
package emit

// Well-known event messages emitted by the engine. The HTTP stream maps
// these onto its wire event types.
const (
	MsgNodeStart = "node_start"
	MsgNodeEnd   = "node_end"
	MsgSuspended = "suspended"
	MsgComplete  = "complete"
	MsgCancelled = "cancelled"
	MsgError     = "error"
)

// Event represents an observability event emitted during workflow
// execution: node start/end, suspension, completion, and errors.
//
// Events flow to an Emitter, which may log them, forward them to
// OpenTelemetry, buffer them for inspection, or push them to a
// streaming consumer.
type Event struct {
	// RunID identifies the workflow execution that emitted this event.
	RunID string

	// Step is the sequential step number in the workflow (1-indexed).
	// Zero for run-level events emitted before the first step.
	Step int

	// NodeID identifies which node this event concerns.
	// Empty for run-level events.
	NodeID string

	// Msg is the event type, one of the Msg constants above.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys: "duration_ms", "error", "code", "reason".
	Meta map[string]interface{}
}
