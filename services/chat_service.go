//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"campus-chat/domain"
	"campus-chat/errors"
	"campus-chat/moderation"
	"campus-chat/repositories"
)

type IChatService interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	Edit(ctx context.Context, cmd domain.EditMessageCommand) (domain.Message, error)
	Delete(ctx context.Context, cmd domain.DeleteMessageCommand) (domain.GroupID, uuid.UUID, error)
	History(ctx context.Context, groupID domain.GroupID, cursor *string) ([]domain.Message, *string, error)
}

type ChatService struct {
	groups    repositories.IGroupRepository
	messages  repositories.IMessageRepository
	moderator *moderation.Moderator
	validate  *validator.Validate
	locks     *groupLocks
	log       *slog.Logger
}

func NewChatService(log *slog.Logger,
	groups repositories.IGroupRepository,
	messages repositories.IMessageRepository,
	moderator *moderation.Moderator) *ChatService {
	return &ChatService{
		groups:    groups,
		messages:  messages,
		moderator: moderator,
		validate:  validator.New(),
		locks:     newGroupLocks(),
		log:       log,
	}
}

// sendPayload carries the validation rules applied before any persistence
// call. The content bound matches the persisted-record layout.
type sendPayload struct {
	GroupID    string `validate:"required"`
	SenderID   string `validate:"required"`
	SenderName string `validate:"required"`
	Content    string `validate:"required,max=1000"`
	Type       string `validate:"required,oneof=text image file"`
}

// Send authorizes, sanitizes, and persists a new message, returning the
// full persisted record for broadcast.
//
// Membership is re-checked against the durable group at call time, never
// cached from the join handshake. The check and the write are serialized
// per group so a concurrent membership change cannot slip a message
// through between them.
func (s *ChatService) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	payload := sendPayload{
		GroupID:    string(cmd.Group),
		SenderID:   cmd.SenderID,
		SenderName: cmd.SenderName,
		Content:    cmd.Content,
		Type:       string(cmd.Type),
	}
	if err := s.validate.Struct(payload); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	unlock := s.locks.lock(cmd.Group)
	defer unlock()

	group, err := s.groups.GetGroup(cmd.Group)
	if err != nil {
		return domain.Message{}, err
	}
	if !group.HasMember(cmd.SenderID) {
		return domain.Message{}, errors.ErrNotGroupMember
	}

	now := time.Now().UTC()
	message := domain.Message{
		ID:         uuid.New(),
		GroupID:    cmd.Group,
		SenderID:   cmd.SenderID,
		SenderName: cmd.SenderName,
		Content:    s.sanitize(cmd.SenderID, cmd.Content),
		Type:       cmd.Type,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.messages.StoreMessage(message); err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Edit mutates a message's content under strict ownership: only the
// original sender may edit, a group admin role grants no override.
func (s *ChatService) Edit(ctx context.Context, cmd domain.EditMessageCommand) (domain.Message, error) {
	if err := s.validate.Var(cmd.NewContent, "required,max=1000"); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	message, err := s.messages.GetMessage(cmd.MessageID)
	if err != nil {
		return domain.Message{}, err
	}
	if message.SenderID != cmd.UserID {
		return domain.Message{}, errors.ErrNotMessageOwner
	}

	now := time.Now().UTC()
	message.Content = s.sanitize(cmd.UserID, cmd.NewContent)
	message.Edited = true
	message.EditedAt = &now
	message.UpdatedAt = now

	if err := s.messages.UpdateMessage(message); err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Delete permanently removes a message under the same ownership rule as
// Edit. It returns the owning group id, needed for the targeted broadcast.
func (s *ChatService) Delete(ctx context.Context, cmd domain.DeleteMessageCommand) (domain.GroupID, uuid.UUID, error) {
	message, err := s.messages.GetMessage(cmd.MessageID)
	if err != nil {
		return "", uuid.Nil, err
	}
	if message.SenderID != cmd.UserID {
		return "", uuid.Nil, errors.ErrNotMessageOwner
	}

	if err := s.messages.DeleteMessage(cmd.MessageID); err != nil {
		return "", uuid.Nil, err
	}
	return message.GroupID, message.ID, nil
}

// History returns the latest persisted page for a room.
func (s *ChatService) History(ctx context.Context, groupID domain.GroupID, cursor *string) ([]domain.Message, *string, error) {
	return s.messages.GetMessages(groupID, cursor)
}

// sanitize censors blacklisted words before persistence. The detected
// language is logged alongside the hit, as moderation dictionaries are
// maintained per language.
func (s *ChatService) sanitize(senderID, content string) string {
	if s.moderator == nil {
		return content
	}
	sanitized, foundWords := s.moderator.Censor(content)
	if len(foundWords) > 0 {
		info := whatlanggo.Detect(content)
		s.log.Warn("Censored message content",
			"sender", senderID,
			"lang", info.Lang.Iso6391(),
			"words", len(foundWords))
	}
	return sanitized
}

// groupLocks hands out one mutex per group so the membership check and the
// message write behave as a single step relative to membership mutations
// on the same group. Entries are reference counted and evicted once the
// last holder releases, keeping the map bounded by in-flight sends rather
// than by every group ever written to.
type groupLocks struct {
	mu    sync.Mutex
	locks map[domain.GroupID]*groupLock
}

type groupLock struct {
	sync.Mutex
	refs int
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[domain.GroupID]*groupLock)}
}

func (g *groupLocks) lock(id domain.GroupID) func() {
	g.mu.Lock()
	l, ok := g.locks[id]
	if !ok {
		l = &groupLock{}
		g.locks[id] = l
	}
	l.refs++
	g.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, id)
		}
		g.mu.Unlock()
	}
}
