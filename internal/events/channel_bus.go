package events

import (
	"github.com/rs/zerolog/log"
)

// ChannelBus is the default in-process Event Bus: a buffered channel the
// chat layer drains. Emit never blocks: a full channel drops the event
// and logs it, keeping delivery best-effort so the state machine is never
// stalled by a slow subscriber.
type ChannelBus struct {
	ch chan Event
}

// NewChannelBus creates a ChannelBus with the given buffer size.
func NewChannelBus(buffer int) *ChannelBus {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelBus{ch: make(chan Event, buffer)}
}

// Emit implements Bus.
func (b *ChannelBus) Emit(e Event) {
	select {
	case b.ch <- e:
	default:
		log.Warn().
			Str("task_id", e.TaskID).
			Str("event_type", string(e.Type)).
			Msg("event bus buffer full; dropping event")
	}
}

// Events returns the receive side of the channel for the chat layer to
// drain.
func (b *ChannelBus) Events() <-chan Event {
	return b.ch
}

// Close closes the underlying channel. Callers must ensure no further Emit
// calls occur after Close.
func (b *ChannelBus) Close() {
	close(b.ch)
}
