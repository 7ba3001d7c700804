package workers

import (
	"context"
	"log/slog"

	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/domain/event"
	"campus-chat/errors"
	"campus-chat/services"
)

// Ensure *SessionWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*SessionWorker)(nil)

// SessionWorker is the per-connection actor. It consumes the connection's
// inbound command channel one command at a time, invokes the service
// layer, and routes the outcome either to the broadcast pipeline or
// directly back to the owning connection.
//
// Handling is strictly sequential per connection, so two messages sent on
// the same connection reach the fanout in the order they were issued.
type SessionWorker struct {
	userID     string
	username   string
	commands   <-chan domain.Command
	own        contract.EventSink          // acks and errors go only to the owning connection
	publish    func(evt event.DomainEvent) // broadcast pipeline entry point
	chat       services.IChatService
	membership services.IMembershipService
	log        *slog.Logger
}

func NewSessionWorker(log *slog.Logger, userID, username string,
	commands <-chan domain.Command, own contract.EventSink,
	publish func(evt event.DomainEvent),
	chat services.IChatService, membership services.IMembershipService) *SessionWorker {
	return &SessionWorker{
		userID:     userID,
		username:   username,
		commands:   commands,
		own:        own,
		publish:    publish,
		chat:       chat,
		membership: membership,
		log:        log,
	}
}

func (w *SessionWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping session worker", "user", w.userID)
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				return nil
			}
			w.handle(ctx, cmd)
		}
	}
}

// handle dispatches over the closed command set. A failed operation is
// surfaced to the requesting connection only; the session itself survives
// and keeps consuming.
func (w *SessionWorker) handle(ctx context.Context, cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.JoinGroupCommand:
		w.membership.AttachRoom(ctx, w.userID, c.Group)
		w.ack(ctx, event.JoinedGroup{Group: c.Group})

	case domain.LeaveGroupCommand:
		w.membership.DetachRoom(w.userID, c.Group)
		w.ack(ctx, event.LeftGroup{Group: c.Group})

	case domain.SendMessageCommand:
		// Identity comes from the session, never from the payload
		c.SenderID = w.userID
		c.SenderName = w.username
		message, err := w.chat.Send(ctx, c)
		if err != nil {
			w.fail(ctx, c.Group, err)
			return
		}
		w.publish(event.MessageSent{Message: message})

	case domain.EditMessageCommand:
		c.UserID = w.userID
		message, err := w.chat.Edit(ctx, c)
		if err != nil {
			w.fail(ctx, "", err)
			return
		}
		w.publish(event.MessageEdited{
			Group:      message.GroupID,
			MessageID:  message.ID,
			NewContent: message.Content,
			EditedAt:   *message.EditedAt,
		})

	case domain.DeleteMessageCommand:
		c.UserID = w.userID
		groupID, messageID, err := w.chat.Delete(ctx, c)
		if err != nil {
			w.fail(ctx, "", err)
			return
		}
		w.publish(event.MessageDeleted{Group: groupID, MessageID: messageID})

	case domain.TypingCommand:
		c.UserID = w.userID
		c.Username = w.username
		if c.Active {
			w.publish(event.UserTyping{Group: c.Group, UserID: c.UserID, Username: c.Username})
		} else {
			w.publish(event.UserStoppedTyping{Group: c.Group, UserID: c.UserID, Username: c.Username})
		}

	case domain.HistoryCommand:
		messages, cursor, err := w.chat.History(ctx, c.Group, c.Cursor)
		if err != nil {
			w.fail(ctx, c.Group, err)
			return
		}
		w.ack(ctx, event.MessageHistory{Group: c.Group, Messages: messages, Cursor: cursor})
	}
}

func (w *SessionWorker) ack(ctx context.Context, evt event.DomainEvent) {
	if err := w.own.Consume(ctx, evt); err != nil {
		w.log.Debug("Ack delivery failed", "user", w.userID, "error", err)
	}
}

func (w *SessionWorker) fail(ctx context.Context, groupID domain.GroupID, err error) {
	code, message := errors.ToClientError(err)
	w.log.Debug("Operation rejected", "user", w.userID, "code", code)
	w.ack(ctx, event.OperationFailed{Group: groupID, Code: code, Message: message})
}
