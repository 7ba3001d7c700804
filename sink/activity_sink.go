package sink

import (
	"context"
	"log/slog"

	"campus-chat/domain/event"
	"campus-chat/repositories"
)

// ActivitySink is a permanent fanout sink that bumps a group's
// lastActivity timestamp whenever a message lands in it. Best-effort: a
// failed bump is logged and never blocks or fails the broadcast.
type ActivitySink struct {
	groups repositories.IGroupRepository
	log    *slog.Logger
}

func NewActivitySink(groups repositories.IGroupRepository, log *slog.Logger) ActivitySink {
	return ActivitySink{groups: groups, log: log}
}

func (a ActivitySink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		if err := a.groups.TouchActivity(evt.Message.GroupID, evt.Message.CreatedAt); err != nil {
			a.log.Debug("Activity bump failed", "group", string(evt.Message.GroupID), "error", err)
		}
		return nil
	default:
		return nil
	}
}
