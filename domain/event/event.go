package event

import (
	"time"

	"github.com/google/uuid"

	"campus-chat/domain"
)

// DomainEvent is anything the fanout can deliver to a room's sinks.
type DomainEvent interface {
	GroupID() domain.GroupID
}

// SenderExcluded is implemented by events that must not be echoed back
// to their originator (typing indicators).
type SenderExcluded interface {
	ExcludedUser() string
}

// MessageSent carries the full persisted record of a new message.
type MessageSent struct {
	Message domain.Message
}

func (e MessageSent) GroupID() domain.GroupID { return e.Message.GroupID }

type MessageEdited struct {
	Group      domain.GroupID
	MessageID  uuid.UUID
	NewContent string
	EditedAt   time.Time
}

func (e MessageEdited) GroupID() domain.GroupID { return e.Group }

type MessageDeleted struct {
	Group     domain.GroupID
	MessageID uuid.UUID
}

func (e MessageDeleted) GroupID() domain.GroupID { return e.Group }

// UserTyping and UserStoppedTyping are best-effort relays, never persisted.
type UserTyping struct {
	Group    domain.GroupID
	UserID   string
	Username string
}

func (e UserTyping) GroupID() domain.GroupID { return e.Group }
func (e UserTyping) ExcludedUser() string    { return e.UserID }

type UserStoppedTyping struct {
	Group    domain.GroupID
	UserID   string
	Username string
}

func (e UserStoppedTyping) GroupID() domain.GroupID { return e.Group }
func (e UserStoppedTyping) ExcludedUser() string    { return e.UserID }

// JoinedGroup and LeftGroup acknowledge explicit room attachment changes.
// They are addressed to a single connection, not broadcast.
type JoinedGroup struct {
	Group domain.GroupID
}

func (e JoinedGroup) GroupID() domain.GroupID { return e.Group }

type LeftGroup struct {
	Group domain.GroupID
}

func (e LeftGroup) GroupID() domain.GroupID { return e.Group }

// MessageHistory is the latest persisted page of a room, addressed to the
// requesting connection only.
type MessageHistory struct {
	Group    domain.GroupID
	Messages []domain.Message
	Cursor   *string
}

func (e MessageHistory) GroupID() domain.GroupID { return e.Group }

// OperationFailed surfaces a rejected operation to the requesting
// connection only. The connection itself survives the failure.
type OperationFailed struct {
	Group   domain.GroupID
	Code    string
	Message string
}

func (e OperationFailed) GroupID() domain.GroupID { return e.Group }
