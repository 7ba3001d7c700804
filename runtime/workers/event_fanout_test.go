package workers

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/domain/event"
	"campus-chat/mocks"
)

// captureSink records every consumed event, safe for concurrent delivery.
type captureSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *captureSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) all() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func TestEventFanout_Delivers_To_Room_Sinks_Only(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := slog.Default()
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)

	groupID := domain.GroupID("math-101")
	alice := &captureSink{}
	bob := &captureSink{}

	registry.EXPECT().SinksForRoom(groupID).Return([]contract.RoomSink{
		{UserID: "alice", Sink: alice},
		{UserID: "bob", Sink: bob},
	})

	fanout := NewEventFanout(log, registry, make(chan event.DomainEvent), time.Second)

	// When a message event for the room is fanned out
	evt := event.MessageDeleted{Group: groupID}
	fanout.Fanout(ctx, evt)

	// Then every attached connection got exactly one copy
	req.Equal([]event.DomainEvent{evt}, alice.all())
	req.Equal([]event.DomainEvent{evt}, bob.all())
}

func TestEventFanout_Excludes_Typing_Sender(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := slog.Default()
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)

	groupID := domain.GroupID("math-101")
	alice := &captureSink{}
	bob := &captureSink{}

	registry.EXPECT().SinksForRoom(groupID).Return([]contract.RoomSink{
		{UserID: "alice", Sink: alice},
		{UserID: "bob", Sink: bob},
	})

	fanout := NewEventFanout(log, registry, make(chan event.DomainEvent), time.Second)

	// When alice's typing indicator is fanned out
	evt := event.UserTyping{Group: groupID, UserID: "alice", Username: "Alice"}
	fanout.Fanout(ctx, evt)

	// Then alice never receives her own indicator
	req.Empty(alice.all())
	req.Equal([]event.DomainEvent{evt}, bob.all())
}

func TestEventFanout_Permanent_Sinks_See_Every_Event(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := slog.Default()
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)

	groupID := domain.GroupID("math-101")
	registry.EXPECT().SinksForRoom(groupID).Return(nil)

	projection := &captureSink{}
	fanout := NewEventFanout(log, registry, make(chan event.DomainEvent), time.Second).
		Add(projection)

	// When an event targets a room with no live connection
	evt := event.MessageDeleted{Group: groupID}
	fanout.Fanout(ctx, evt)

	// Then the permanent sink still observed it
	req.Equal([]event.DomainEvent{evt}, projection.all())
}

func TestEventFanout_Delivers_To_Attached_NonMembers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := slog.Default()
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)

	// Given a connection still attached to the room while the durable
	// group no longer lists its user
	group := domain.NewGroup("Math 101", "Algebra homework", "teacher-1", "Mme Dupont")
	req.False(group.HasMember("alice"))

	alice := &captureSink{}
	registry.EXPECT().SinksForRoom(group.ID).Return([]contract.RoomSink{
		{UserID: "alice", Sink: alice},
	})

	fanout := NewEventFanout(log, registry, make(chan event.DomainEvent), time.Second)

	// When an event for the room is fanned out
	evt := event.MessageDeleted{Group: group.ID}
	fanout.Fanout(ctx, evt)

	// Then delivery follows the attachment, not the membership list:
	// a roster change never silently revokes a live subscription.
	req.Equal([]event.DomainEvent{evt}, alice.all())
}

func TestEventFanout_Run_Drains_Channel_In_Order(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)

	groupID := domain.GroupID("math-101")
	alice := &captureSink{}
	registry.EXPECT().SinksForRoom(groupID).Return([]contract.RoomSink{
		{UserID: "alice", Sink: alice},
	}).Times(2)

	events := make(chan event.DomainEvent, 2)
	fanout := NewEventFanout(log, registry, events, time.Second)

	first := event.UserTyping{Group: groupID, UserID: "bob", Username: "Bob"}
	second := event.UserStoppedTyping{Group: groupID, UserID: "bob", Username: "Bob"}
	events <- first
	events <- second
	close(events)

	// Run returns once the channel is drained and closed
	err := fanout.Run(context.Background())

	req.NoError(err)
	req.Equal([]event.DomainEvent{first, second}, alice.all())
}
