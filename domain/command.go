package domain

import "github.com/google/uuid"

// Command is the closed set of inbound client intents. The marker method
// keeps the set sealed so session handling stays exhaustive.
type Command interface {
	isCommand()
}

type JoinGroupCommand struct {
	Group GroupID
}

type LeaveGroupCommand struct {
	Group GroupID
}

type SendMessageCommand struct {
	Group      GroupID
	SenderID   string
	SenderName string
	Content    string
	Type       MessageType
}

type EditMessageCommand struct {
	MessageID  uuid.UUID
	NewContent string
	UserID     string
}

type DeleteMessageCommand struct {
	MessageID uuid.UUID
	UserID    string
}

// TypingCommand covers both typing_start (Active) and typing_stop.
type TypingCommand struct {
	Group    GroupID
	UserID   string
	Username string
	Active   bool
}

type HistoryCommand struct {
	Group  GroupID
	Cursor *string
}

func (JoinGroupCommand) isCommand()     {}
func (LeaveGroupCommand) isCommand()    {}
func (SendMessageCommand) isCommand()   {}
func (EditMessageCommand) isCommand()   {}
func (DeleteMessageCommand) isCommand() {}
func (TypingCommand) isCommand()        {}
func (HistoryCommand) isCommand()       {}
