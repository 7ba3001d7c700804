package ws

import (
	"context"

	"campus-chat/domain/event"
)

// Sink is the per-connection delivery channel between the broadcast
// pipeline and the connection's write pump.
type Sink struct {
	ConnectedUserEvent chan event.DomainEvent
}

func NewSink(bufferSize int) *Sink {
	return &Sink{ConnectedUserEvent: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by the fanout (and by the session for direct acks).
// It redirects the event to the owning connection's channel; the write
// pump takes it from there. A full channel drops the event rather than
// blocking the broadcast of everyone else.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.ConnectedUserEvent <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
