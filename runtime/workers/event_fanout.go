package workers

import (
	"context"
	"log/slog"
	"time"

	"campus-chat/contract"
	"campus-chat/domain/event"
)

// Ensure *EventFanout implements the contract.Worker interface at compile time.
var _ contract.Worker = (*EventFanout)(nil)

// EventFanout is the broadcast dispatcher: it drains the domain-event
// channel and delivers each event to every connection currently attached
// to the affected room.
//
// Delivery is at-most-once per attached connection and best-effort: no
// acknowledgement, no retry, no durable outbox. Failures against a dead
// sink are logged and ignored. Within a room, events leave this worker in
// the order they entered the channel, which is the order their triggering
// operations completed persistence.
type EventFanout struct {
	log            *slog.Logger
	registry       contract.IRegistry
	events         chan event.DomainEvent
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry,
	events chan event.DomainEvent, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:         log,
		registry:    registry,
		events:      events,
		sinkTimeout: sinkTimeout,
	}
}

// Add attaches permanent sinks consulted for every event regardless of
// room, such as the activity projection.
func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.permanentSinks = append(w.permanentSinks, sinks...)
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return ctx.Err()
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.Fanout(ctx, evt)
		}
	}
}

// Fanout delivers one event to the permanent sinks and to each connection
// attached to the event's room. Typing indicators carry an excluded user
// and are never echoed back to their sender.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.permanentSinks {
		w.deliver(ctx, sink, evt)
	}

	excludedUser := ""
	if excl, ok := evt.(event.SenderExcluded); ok {
		excludedUser = excl.ExcludedUser()
	}

	for _, roomSink := range w.registry.SinksForRoom(evt.GroupID()) {
		if excludedUser != "" && roomSink.UserID == excludedUser {
			continue
		}
		w.deliver(ctx, roomSink.Sink, evt)
	}
}

func (w *EventFanout) deliver(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	deliveryCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()

	if err := sink.Consume(deliveryCtx, evt); err != nil {
		w.log.Debug("Sink delivery failed", "error", err)
	}
}
