package emit

// Emitter receives observability events from workflow execution.
//
// Implementations should be:
//   - Non-blocking where possible: avoid slowing down execution
//   - Thread-safe: may be called from multiple runs concurrently
//   - Resilient: handle backend failures without crashing the workflow
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	// Emit must not panic. Errors are handled internally.
	Emit(event Event)
}

// Multi returns an Emitter that fans an event out to every non-nil
// emitter in order.
func Multi(emitters ...Emitter) Emitter {
	active := make([]Emitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			active = append(active, e)
		}
	}
	return multiEmitter(active)
}

type multiEmitter []Emitter

func (m multiEmitter) Emit(event Event) {
	for _, e := range m {
		e.Emit(event)
	}
}
