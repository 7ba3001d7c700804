// Package domain contains core concepts of the chat system.
// This file defines Message entities and related rules.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// MaxContentLength bounds the persisted content of a single message.
const MaxContentLength = 1000

// Message is a persisted chat message. Edited and EditedAt are set only
// through a successful edit by the original sender.
type Message struct {
	ID         uuid.UUID
	GroupID    GroupID
	SenderID   string
	SenderName string
	Content    string
	Type       MessageType
	Edited     bool
	EditedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
