// Package ws is the WebSocket transport: it upgrades connections, runs the
// join handshake, and translates between JSON event frames and the domain
// command/event types.
package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"campus-chat/domain"
	"campus-chat/domain/event"
	"campus-chat/errors"
)

// Frame is the envelope of every inbound and outbound message.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	eventUserJoin      = "user_join"
	eventJoinGroup     = "join_group"
	eventLeaveGroup    = "leave_group"
	eventSendMessage   = "send_message"
	eventEditMessage   = "edit_message"
	eventDeleteMessage = "delete_message"
	eventTypingStart   = "typing_start"
	eventTypingStop    = "typing_stop"
	eventGetHistory    = "get_history"

	eventUserJoined        = "user_joined"
	eventJoinedGroup       = "joined_group"
	eventLeftGroup         = "left_group"
	eventNewMessage        = "new_message"
	eventMessageEdited     = "message_edited"
	eventMessageDeleted    = "message_deleted"
	eventUserTyping        = "user_typing"
	eventUserStoppedTyping = "user_stopped_typing"
	eventMessageHistory    = "message_history"
	eventError             = "error"
)

type userJoinPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

type groupPayload struct {
	GroupID string `json:"groupId"`
}

type sendMessagePayload struct {
	GroupID     string `json:"groupId"`
	SenderID    string `json:"senderId"`
	SenderName  string `json:"senderName"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
}

type editMessagePayload struct {
	MessageID  string `json:"messageId"`
	NewContent string `json:"newContent"`
	UserID     string `json:"userId"`
}

type deleteMessagePayload struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

type typingPayload struct {
	GroupID  string `json:"groupId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type historyPayload struct {
	GroupID string  `json:"groupId"`
	Cursor  *string `json:"cursor,omitempty"`
}

type messageBody struct {
	ID          string     `json:"id"`
	GroupID     string     `json:"groupId"`
	SenderID    string     `json:"senderId"`
	SenderName  string     `json:"senderName"`
	Content     string     `json:"content"`
	MessageType string     `json:"messageType"`
	CreatedAt   time.Time  `json:"createdAt"`
	Edited      bool       `json:"edited"`
	EditedAt    *time.Time `json:"editedAt,omitempty"`
}

// DecodeCommand turns an inbound frame into one variant of the closed
// command set. The session worker overwrites any identity fields with the
// authenticated session identity, so client-supplied sender fields are
// decoded but never trusted.
func DecodeCommand(frame Frame) (domain.Command, error) {
	switch frame.Event {
	case eventJoinGroup:
		var p groupPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		return domain.JoinGroupCommand{Group: domain.GroupID(p.GroupID)}, nil

	case eventLeaveGroup:
		var p groupPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		return domain.LeaveGroupCommand{Group: domain.GroupID(p.GroupID)}, nil

	case eventSendMessage:
		var p sendMessagePayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		messageType := domain.MessageType(p.MessageType)
		if p.MessageType == "" {
			messageType = domain.MessageTypeText
		}
		return domain.SendMessageCommand{
			Group:      domain.GroupID(p.GroupID),
			SenderID:   p.SenderID,
			SenderName: p.SenderName,
			Content:    p.Content,
			Type:       messageType,
		}, nil

	case eventEditMessage:
		var p editMessagePayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		id, err := uuid.Parse(p.MessageID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad messageId", errors.ErrValidation)
		}
		return domain.EditMessageCommand{
			MessageID:  id,
			NewContent: p.NewContent,
			UserID:     p.UserID,
		}, nil

	case eventDeleteMessage:
		var p deleteMessagePayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		id, err := uuid.Parse(p.MessageID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad messageId", errors.ErrValidation)
		}
		return domain.DeleteMessageCommand{MessageID: id, UserID: p.UserID}, nil

	case eventTypingStart, eventTypingStop:
		var p typingPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		return domain.TypingCommand{
			Group:    domain.GroupID(p.GroupID),
			UserID:   p.UserID,
			Username: p.Username,
			Active:   frame.Event == eventTypingStart,
		}, nil

	case eventGetHistory:
		var p historyPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		return domain.HistoryCommand{Group: domain.GroupID(p.GroupID), Cursor: p.Cursor}, nil

	default:
		return nil, fmt.Errorf("%w: unknown event %q", errors.ErrValidation, frame.Event)
	}
}

// EncodeEvent turns a domain event into the outbound JSON frame delivered
// to a connection.
func EncodeEvent(evt event.DomainEvent) (Frame, error) {
	switch e := evt.(type) {
	case event.MessageSent:
		return makeFrame(eventNewMessage, toMessageBody(e.Message))

	case event.MessageEdited:
		return makeFrame(eventMessageEdited, map[string]any{
			"messageId":  e.MessageID.String(),
			"newContent": e.NewContent,
			"editedAt":   e.EditedAt,
		})

	case event.MessageDeleted:
		return makeFrame(eventMessageDeleted, map[string]any{
			"messageId": e.MessageID.String(),
		})

	case event.UserTyping:
		return makeFrame(eventUserTyping, typingPayload{
			GroupID:  string(e.Group),
			UserID:   e.UserID,
			Username: e.Username,
		})

	case event.UserStoppedTyping:
		return makeFrame(eventUserStoppedTyping, typingPayload{
			GroupID:  string(e.Group),
			UserID:   e.UserID,
			Username: e.Username,
		})

	case event.JoinedGroup:
		return makeFrame(eventJoinedGroup, groupPayload{GroupID: string(e.Group)})

	case event.LeftGroup:
		return makeFrame(eventLeftGroup, groupPayload{GroupID: string(e.Group)})

	case event.MessageHistory:
		return makeFrame(eventMessageHistory, map[string]any{
			"groupId": string(e.Group),
			"messages": lo.Map(e.Messages, func(m domain.Message, _ int) messageBody {
				return toMessageBody(m)
			}),
			"cursor": e.Cursor,
		})

	case event.OperationFailed:
		return makeFrame(eventError, map[string]any{
			"code":    e.Code,
			"message": e.Message,
		})

	default:
		return Frame{}, fmt.Errorf("no outbound encoding for event %T", evt)
	}
}

func makeFrame(name string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: name, Payload: raw}, nil
}

func toMessageBody(m domain.Message) messageBody {
	return messageBody{
		ID:          m.ID.String(),
		GroupID:     string(m.GroupID),
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		Content:     m.Content,
		MessageType: string(m.Type),
		CreatedAt:   m.CreatedAt,
		Edited:      m.Edited,
		EditedAt:    m.EditedAt,
	}
}
