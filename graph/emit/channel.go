package emit

// ChannelEmitter implements Emitter by pushing events onto a channel.
//
// Used by the engine's Stream method: the engine runs in a goroutine,
// events flow through the channel to a single consumer, and the channel
// is closed by the producer after the terminal event. Emit blocks when
// the buffer is full, so the consumer drives the pace (lazy evaluation).
type ChannelEmitter struct {
	ch chan<- Event
}

// NewChannelEmitter wraps a channel as an Emitter. The caller retains
// ownership of the channel and is responsible for closing it.
func NewChannelEmitter(ch chan<- Event) *ChannelEmitter {
	return &ChannelEmitter{ch: ch}
}

// Emit sends the event, blocking until the consumer has capacity.
func (c *ChannelEmitter) Emit(event Event) {
	c.ch <- event
}
