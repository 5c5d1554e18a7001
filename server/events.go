package server

import "github.com/tripflow-ai/tripflow/graph/emit"

// WireEvent is the SSE payload shape: a type tag, the node name where
// one applies, and optional structured payload.
type WireEvent struct {
	Type    string                 `json:"type"`
	Name    string                 `json:"name,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// wireEvent translates an engine event into the wire shape. The
// terminal events are enriched by the stream handler: "complete"
// carries the itinerary, "questions" the pending clarifications.
func wireEvent(ev emit.Event) WireEvent {
	out := WireEvent{Name: ev.NodeID, Payload: ev.Meta}
	switch ev.Msg {
	case emit.MsgNodeStart:
		out.Type = "node_start"
	case emit.MsgNodeEnd:
		out.Type = "node_end"
	case emit.MsgSuspended:
		out.Type = "questions"
	case emit.MsgComplete:
		out.Type = "complete"
	case emit.MsgCancelled, emit.MsgError:
		out.Type = "error"
		if ev.Msg == emit.MsgCancelled {
			if out.Payload == nil {
				out.Payload = map[string]interface{}{}
			}
			out.Payload["error"] = "cancelled"
		}
	default:
		out.Type = ev.Msg
	}
	return out
}
