package ws

import (
	"context"

	"chat-server/domain/event"
)

// Sink buffers domain events headed for a single websocket connection.
// The fan-out engine calls Consume; the write pump drains Events.
type Sink struct {
	events chan event.DomainEvent
	onDrop func()
}

func NewSink(bufferSize int, onDrop func()) *Sink {
	return &Sink{events: make(chan event.DomainEvent, bufferSize), onDrop: onDrop}
}

// Consume hands an event to the connection owning this sink.
// A full buffer drops the event rather than blocking the fan-out path.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if s.onDrop != nil {
			s.onDrop()
		}
		return nil
	}
}

func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}
