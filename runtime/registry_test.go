package runtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"campus-chat/domain"
	"campus-chat/domain/event"
)

type stubSink struct {
	name string
}

func (s *stubSink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Register_One_Room_One_User(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	connectionID := uuid.NewString()
	groupID := domain.GroupID("math-101")
	sink := &stubSink{name: "a"}

	// Given no user is connected
	_, online := registry.Lookup(userID)
	req.False(online)

	// When the user registers and attaches to a room
	registry.Register(userID, "alice", connectionID, sink)
	registry.Attach(userID, groupID)

	// Then
	resolved, online := registry.Lookup(userID)
	req.True(online)
	req.Equal(connectionID, resolved)
	req.True(registry.Attached(userID, groupID))

	sinks := registry.SinksForRoom(groupID)
	req.Len(sinks, 1)
	req.Equal(userID, sinks[0].UserID)
	req.Same(sink, sinks[0].Sink.(*stubSink))
}

func TestRegistry_Register_One_Room_Multiple_Users(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID1 := uuid.NewString()
	userID2 := uuid.NewString()
	groupID := domain.GroupID("math-101")

	// When two users register and attach to the same room
	registry.Register(userID1, "alice", uuid.NewString(), &stubSink{name: "a"})
	registry.Register(userID2, "bob", uuid.NewString(), &stubSink{name: "b"})
	registry.Attach(userID1, groupID)
	registry.Attach(userID2, groupID)

	// Then both sinks are resolvable through the room
	sinks := registry.SinksForRoom(groupID)
	req.Len(sinks, 2)
}

func TestRegistry_Register_Last_Join_Wins(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	staleConnection := uuid.NewString()
	freshConnection := uuid.NewString()

	// Given a user already registered on one connection
	registry.Register(userID, "alice", staleConnection, &stubSink{name: "stale"})

	// When the same user registers on a new connection
	registry.Register(userID, "alice", freshConnection, &stubSink{name: "fresh"})

	// Then only the new connection is tracked
	resolved, online := registry.Lookup(userID)
	req.True(online)
	req.Equal(freshConnection, resolved)
}

func TestRegistry_Register_Retry_With_New_Identity_Evicts_Old(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()

	// Given a handshake registered one identity on the connection
	registry.Register("student-7", "alice", connectionID, &stubSink{name: "a"})

	// When the retry on the same connection registers another identity
	registry.Register("student-8", "bob", connectionID, &stubSink{name: "b"})

	// Then the first identity is gone, not orphaned without a reverse index
	_, online := registry.Lookup("student-7")
	req.False(online)

	resolved, online := registry.Lookup("student-8")
	req.True(online)
	req.Equal(connectionID, resolved)

	// And the teardown reaps the surviving identity
	registry.RemoveByConnection(connectionID)
	_, online = registry.Lookup("student-8")
	req.False(online)
}

func TestRegistry_RemoveByConnection_Sweeps_All_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	connectionID := uuid.NewString()
	groupID1 := domain.GroupID("math-101")
	groupID2 := domain.GroupID("physics-2b")

	// Given a registered user attached to two rooms
	registry.Register(userID, "alice", connectionID, &stubSink{name: "a"})
	registry.Attach(userID, groupID1)
	registry.Attach(userID, groupID2)

	// When the connection closes
	registry.RemoveByConnection(connectionID)

	// Then the user is gone from presence and from every room
	_, online := registry.Lookup(userID)
	req.False(online)
	req.False(registry.Attached(userID, groupID1))
	req.False(registry.Attached(userID, groupID2))
	req.Nil(registry.SinksForRoom(groupID1))
	req.Nil(registry.SinksForRoom(groupID2))
}

func TestRegistry_RemoveByConnection_Superseded_Session_Is_NoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	staleConnection := uuid.NewString()
	freshConnection := uuid.NewString()
	groupID := domain.GroupID("math-101")

	// Given a reconnect replaced the first connection
	registry.Register(userID, "alice", staleConnection, &stubSink{name: "stale"})
	registry.Register(userID, "alice", freshConnection, &stubSink{name: "fresh"})
	registry.Attach(userID, groupID)

	// When the stale connection's teardown fires
	registry.RemoveByConnection(staleConnection)

	// Then the fresh session survives untouched
	resolved, online := registry.Lookup(userID)
	req.True(online)
	req.Equal(freshConnection, resolved)
	req.True(registry.Attached(userID, groupID))
}

func TestRegistry_Detach_One_Room_Multiple_Users(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID1 := uuid.NewString()
	userID2 := uuid.NewString()
	groupID := domain.GroupID("math-101")

	// Given two users attached to the same room
	registry.Register(userID1, "alice", uuid.NewString(), &stubSink{name: "a"})
	registry.Register(userID2, "bob", uuid.NewString(), &stubSink{name: "b"})
	registry.Attach(userID1, groupID)
	registry.Attach(userID2, groupID)

	// When one detaches
	registry.Detach(userID1, groupID)

	// Then only the other remains in the room
	req.False(registry.Attached(userID1, groupID))
	req.True(registry.Attached(userID2, groupID))

	sinks := registry.SinksForRoom(groupID)
	req.Len(sinks, 1)
	req.Equal(userID2, sinks[0].UserID)
}

func TestRegistry_Detach_Unknown_Room_Is_NoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// When detaching from a room nobody ever attached to
	registry.Detach(uuid.NewString(), domain.GroupID("ghost"))

	// Then nothing blows up and the room still doesn't exist
	req.Nil(registry.SinksForRoom(domain.GroupID("ghost")))
}
