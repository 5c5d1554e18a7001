package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory,
// organized by run ID. Thread-safe.
//
// Intended for tests and debugging: run a workflow, then assert on the
// exact event sequence. All events stay in memory until Clear is called,
// so this is not a production emitter for long-lived processes.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // runID -> events in emit order
}

// NewBufferedEmitter creates an empty buffered emitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores the event.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// GetHistory returns a copy of all events for a run in emit order.
func (b *BufferedEmitter) GetHistory(runID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[runID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// NodeVisits returns the NodeID sequence of node_start events for a run.
// Convenient for asserting execution order in tests.
func (b *BufferedEmitter) NodeVisits(runID string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var visits []string
	for _, event := range b.events[runID] {
		if event.Msg == MsgNodeStart {
			visits = append(visits, event.NodeID)
		}
	}
	return visits
}

// Clear removes stored events for a run, or all runs when runID is empty.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if runID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, runID)
}
