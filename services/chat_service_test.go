package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"campus-chat/domain"
	"campus-chat/errors"
	"campus-chat/mocks"
	"campus-chat/moderation"
)

func newChatFixture(t *testing.T) (*ChatService, *mocks.MockIGroupRepository, *mocks.MockIMessageRepository) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	groups := mocks.NewMockIGroupRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	moderator, err := moderation.NewModerator([]string{"stupide"}, '*')
	require.NoError(t, err)
	return NewChatService(log, groups, messages, &moderator), groups, messages
}

func classGroup(memberIDs ...string) domain.Group {
	group := domain.NewGroup("Math 101", "Algebra homework", "teacher-1", "Mme Dupont")
	for _, id := range memberIDs {
		group.AddMember(domain.Member{UserID: id, Username: id, Role: domain.RoleMember})
	}
	return group
}

func TestChatService_Send_Member_Succeeds(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, groups, messages := newChatFixture(t)

	// Given a group where the sender is a member
	group := classGroup("student-7")
	groups.EXPECT().GetGroup(group.ID).Return(group, nil)

	var stored domain.Message
	messages.EXPECT().StoreMessage(gomock.Any()).DoAndReturn(func(m domain.Message) error {
		stored = m
		return nil
	})

	// When the member sends a message
	sent, err := service.Send(ctx, domain.SendMessageCommand{
		Group:      group.ID,
		SenderID:   "student-7",
		SenderName: "Léa",
		Content:    "Quelqu'un a fini l'exercice 3 ?",
		Type:       domain.MessageTypeText,
	})

	// Then the persisted record is returned in full
	req.NoError(err)
	req.Equal(stored, sent)
	req.NotEqual(uuid.Nil, sent.ID)
	req.Equal(group.ID, sent.GroupID)
	req.Equal("student-7", sent.SenderID)
	req.Equal("Quelqu'un a fini l'exercice 3 ?", sent.Content)
	req.False(sent.Edited)
	req.Nil(sent.EditedAt)
	req.False(sent.CreatedAt.IsZero())
	req.Equal(sent.CreatedAt, sent.UpdatedAt)
}

func TestChatService_Send_NonMember_Rejected_Without_Persistence(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, groups, messages := newChatFixture(t)

	// Given a group that does not list the sender
	group := classGroup("student-7")
	groups.EXPECT().GetGroup(group.ID).Return(group, nil)

	// Then the store is never touched
	messages.EXPECT().StoreMessage(gomock.Any()).Times(0)

	// When an outsider tries to send
	_, err := service.Send(ctx, domain.SendMessageCommand{
		Group:      group.ID,
		SenderID:   "intruder-1",
		SenderName: "Intruder",
		Content:    "hello",
		Type:       domain.MessageTypeText,
	})

	req.ErrorIs(err, errors.ErrNotGroupMember)
}

func TestChatService_Send_Unknown_Group(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, groups, _ := newChatFixture(t)

	groups.EXPECT().GetGroup(domain.GroupID("missing")).Return(domain.Group{}, errors.ErrGroupNotFound)

	_, err := service.Send(ctx, domain.SendMessageCommand{
		Group:      "missing",
		SenderID:   "student-7",
		SenderName: "Léa",
		Content:    "hello",
		Type:       domain.MessageTypeText,
	})

	req.ErrorIs(err, errors.ErrGroupNotFound)
}

func TestChatService_Send_Validation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, _ := newChatFixture(t)

	base := domain.SendMessageCommand{
		Group:      "math-101",
		SenderID:   "student-7",
		SenderName: "Léa",
		Content:    "hello",
		Type:       domain.MessageTypeText,
	}

	tests := []struct {
		description string
		modify      func(c *domain.SendMessageCommand)
	}{
		{
			"Should fail if content is empty",
			func(c *domain.SendMessageCommand) { c.Content = "" },
		},
		{
			"Should fail if content exceeds the length cap",
			func(c *domain.SendMessageCommand) {
				c.Content = strings.Repeat("a", domain.MaxContentLength+1)
			},
		},
		{
			"Should fail if type is not in the allowed set",
			func(c *domain.SendMessageCommand) { c.Type = "voice" },
		},
		{
			"Should fail if group is empty",
			func(c *domain.SendMessageCommand) { c.Group = "" },
		},
		{
			"Should fail if sender id is empty",
			func(c *domain.SendMessageCommand) { c.SenderID = "" },
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			cmd := base
			test.modify(&cmd)

			// No repository expectation is set: a validation failure
			// must never reach the store.
			_, err := service.Send(ctx, cmd)
			req.ErrorIs(err, errors.ErrValidation)
		})
	}
}

func TestChatService_Send_Censors_Content(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, groups, messages := newChatFixture(t)

	group := classGroup("student-7")
	groups.EXPECT().GetGroup(group.ID).Return(group, nil)

	var stored domain.Message
	messages.EXPECT().StoreMessage(gomock.Any()).DoAndReturn(func(m domain.Message) error {
		stored = m
		return nil
	})

	// When the content carries a blacklisted word
	_, err := service.Send(ctx, domain.SendMessageCommand{
		Group:      group.ID,
		SenderID:   "student-7",
		SenderName: "Léa",
		Content:    "Ce devoir est stupide",
		Type:       domain.MessageTypeText,
	})

	// Then the persisted content is the censored form
	req.NoError(err)
	req.Equal("Ce devoir est *******", stored.Content)
}

func TestChatService_Edit_Owner_Succeeds(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, messages := newChatFixture(t)

	messageID := uuid.New()
	existing := domain.Message{
		ID:       messageID,
		GroupID:  "math-101",
		SenderID: "student-7",
		Content:  "old content",
		Type:     domain.MessageTypeText,
	}
	messages.EXPECT().GetMessage(messageID).Return(existing, nil)

	var updated domain.Message
	messages.EXPECT().UpdateMessage(gomock.Any()).DoAndReturn(func(m domain.Message) error {
		updated = m
		return nil
	})

	// When the original sender edits
	edited, err := service.Edit(ctx, domain.EditMessageCommand{
		MessageID:  messageID,
		NewContent: "new content",
		UserID:     "student-7",
	})

	// Then the edit flags and timestamps are set on the stored record
	req.NoError(err)
	req.Equal(updated, edited)
	req.Equal("new content", edited.Content)
	req.True(edited.Edited)
	req.NotNil(edited.EditedAt)
	req.Equal(*edited.EditedAt, edited.UpdatedAt)
}

func TestChatService_Edit_NonOwner_Rejected(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, messages := newChatFixture(t)

	messageID := uuid.New()
	messages.EXPECT().GetMessage(messageID).Return(domain.Message{
		ID:       messageID,
		GroupID:  "math-101",
		SenderID: "student-7",
	}, nil)
	messages.EXPECT().UpdateMessage(gomock.Any()).Times(0)

	// When someone else, even an admin, edits
	_, err := service.Edit(ctx, domain.EditMessageCommand{
		MessageID:  messageID,
		NewContent: "hijacked",
		UserID:     "teacher-1",
	})

	req.ErrorIs(err, errors.ErrNotMessageOwner)
}

func TestChatService_Edit_Validation_Before_Lookup(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, _ := newChatFixture(t)

	// No GetMessage expectation: oversized content must fail first
	_, err := service.Edit(ctx, domain.EditMessageCommand{
		MessageID:  uuid.New(),
		NewContent: strings.Repeat("a", domain.MaxContentLength+1),
		UserID:     "student-7",
	})

	req.ErrorIs(err, errors.ErrValidation)
}

func TestChatService_Delete_Owner_Succeeds(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, messages := newChatFixture(t)

	messageID := uuid.New()
	messages.EXPECT().GetMessage(messageID).Return(domain.Message{
		ID:       messageID,
		GroupID:  "math-101",
		SenderID: "student-7",
	}, nil)
	messages.EXPECT().DeleteMessage(messageID).Return(nil)

	groupID, deletedID, err := service.Delete(ctx, domain.DeleteMessageCommand{
		MessageID: messageID,
		UserID:    "student-7",
	})

	req.NoError(err)
	req.Equal(domain.GroupID("math-101"), groupID)
	req.Equal(messageID, deletedID)
}

func TestChatService_Delete_NonOwner_Rejected(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, messages := newChatFixture(t)

	messageID := uuid.New()
	messages.EXPECT().GetMessage(messageID).Return(domain.Message{
		ID:       messageID,
		GroupID:  "math-101",
		SenderID: "student-7",
	}, nil)
	messages.EXPECT().DeleteMessage(gomock.Any()).Times(0)

	_, _, err := service.Delete(ctx, domain.DeleteMessageCommand{
		MessageID: messageID,
		UserID:    "student-8",
	})

	req.ErrorIs(err, errors.ErrNotMessageOwner)
}

func TestChatService_Delete_Missing_Message(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, messages := newChatFixture(t)

	messageID := uuid.New()
	messages.EXPECT().GetMessage(messageID).Return(domain.Message{}, errors.ErrMessageNotFound)

	_, _, err := service.Delete(ctx, domain.DeleteMessageCommand{
		MessageID: messageID,
		UserID:    "student-7",
	})

	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func TestChatService_Send_Leaves_No_Lock_Entry_Behind(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, groups, messages := newChatFixture(t)

	// Given a send against each of many distinct groups
	for i := 0; i < 20; i++ {
		group := classGroup("student-7")
		groups.EXPECT().GetGroup(group.ID).Return(group, nil)
		messages.EXPECT().StoreMessage(gomock.Any()).Return(nil)

		_, err := service.Send(ctx, domain.SendMessageCommand{
			Group:      group.ID,
			SenderID:   "student-7",
			SenderName: "Léa",
			Content:    "hello",
			Type:       domain.MessageTypeText,
		})
		req.NoError(err)
	}

	// Then no per-group lock survives its send
	service.locks.mu.Lock()
	defer service.locks.mu.Unlock()
	req.Empty(service.locks.locks)
}

func TestGroupLocks_Entry_Lives_Only_While_Held(t *testing.T) {
	req := require.New(t)
	locks := newGroupLocks()

	// Given two holders contending for the same group
	unlockFirst := locks.lock("math-101")
	released := make(chan struct{})
	go func() {
		unlockSecond := locks.lock("math-101")
		unlockSecond()
		close(released)
	}()

	// The entry stays while a holder is in flight
	locks.mu.Lock()
	req.Len(locks.locks, 1)
	locks.mu.Unlock()

	unlockFirst()
	<-released

	// Then the last release evicts the entry
	locks.mu.Lock()
	defer locks.mu.Unlock()
	req.Empty(locks.locks)
}

func TestChatService_History_Passthrough(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, messages := newChatFixture(t)

	cursor := "msg:math-101:0000000000000000042:abc"
	page := []domain.Message{{ID: uuid.New(), GroupID: "math-101"}}
	messages.EXPECT().GetMessages(domain.GroupID("math-101"), (*string)(nil)).Return(page, &cursor, nil)

	result, next, err := service.History(ctx, "math-101", nil)

	req.NoError(err)
	req.Equal(page, result)
	req.Equal(&cursor, next)
}
