// Package runtime handles connection presence, room attachment, and the
// wiring between transport sessions and the broadcast pipeline.
package runtime

import (
	"sync"

	"campus-chat/contract"
	"campus-chat/domain"
)

type Set map[string]struct{}

type presenceEntry struct {
	username     string
	connectionID string
	sink         contract.EventSink
}

// Registry tracks each user's live connection and the rooms it is attached
// to. A room's subscriber set is always a subset of, but may lag behind,
// the group's durable membership. The registry is injected wherever it is
// needed so tests can instantiate independent instances.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]presenceEntry // userID -> live connection
	connections map[string]string        // connectionID -> userID (reverse index)
	roomMembers map[domain.GroupID]Set   // room -> attached userIDs
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]presenceEntry),
		connections: make(map[string]string),
		roomMembers: make(map[domain.GroupID]Set),
	}
}

// Register records a user's active connection, overwriting any prior entry
// for that user: last join wins, there is no multi-session support. The
// stale connection's reverse index entry is dropped so its teardown cannot
// reap the new session. A connection re-registering under a different user
// (handshake retry with another identity) evicts the entry it held before,
// otherwise that session would outlive its reverse index forever.
func (r *Registry) Register(userID, username, connectionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previousUser, ok := r.connections[connectionID]; ok && previousUser != userID {
		if entry, ok := r.sessions[previousUser]; ok && entry.connectionID == connectionID {
			delete(r.sessions, previousUser)
		}
	}
	if previous, ok := r.sessions[userID]; ok {
		delete(r.connections, previous.connectionID)
	}
	r.sessions[userID] = presenceEntry{
		username:     username,
		connectionID: connectionID,
		sink:         sink,
	}
	r.connections[connectionID] = userID
}

// Lookup resolves a user to its current connection id.
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[userID]
	if !ok {
		return "", false
	}
	return entry.connectionID, true
}

// RemoveByConnection clears both the forward and reverse index for a closed
// connection and sweeps the user out of every room. A connection that was
// already superseded by a newer session for the same user is a no-op.
func (r *Registry) RemoveByConnection(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.connections[connectionID]
	if !ok {
		return
	}
	delete(r.connections, connectionID)

	entry, ok := r.sessions[userID]
	if !ok || entry.connectionID != connectionID {
		return
	}
	delete(r.sessions, userID)

	for groupID, members := range r.roomMembers {
		delete(members, userID)
		// If no one is left in the room, remove the room entry entirely
		if len(members) == 0 {
			delete(r.roomMembers, groupID)
		}
	}
}

// Attach subscribes the user's connection to a room. If the room does not
// yet exist in the registry, it is initialized on the fly.
func (r *Registry) Attach(userID string, groupID domain.GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roomMembers[groupID]; !ok {
		r.roomMembers[groupID] = make(Set)
	}
	r.roomMembers[groupID][userID] = struct{}{}
}

// Detach removes the user from a room. Detaching from a room the user is
// not attached to is a no-op.
func (r *Registry) Detach(userID string, groupID domain.GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.roomMembers[groupID]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(r.roomMembers, groupID)
		}
	}
}

// Attached reports whether the user's connection is currently subscribed
// to the room.
func (r *Registry) Attached(userID string, groupID domain.GroupID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[groupID]
	if !ok {
		return false
	}
	_, ok = members[userID]
	return ok
}

// SinksForRoom retrieves all active communication channels for a specific
// room. It performs a two-step lookup:
//  1. Identifies userIDs attached to the room via roomMembers.
//  2. Resolves those IDs into live sinks using the sessions map.
//
// This decoupled approach ensures that even if a user is in multiple rooms,
// their connection (Sink) is managed in a single place.
// Returns nil if the room doesn't exist or has no attached members.
func (r *Registry) SinksForRoom(groupID domain.GroupID) []contract.RoomSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[groupID]
	if !ok {
		return nil
	}
	var activeSinks []contract.RoomSink
	for userID := range members {
		if entry, exists := r.sessions[userID]; exists {
			activeSinks = append(activeSinks, contract.RoomSink{UserID: userID, Sink: entry.sink})
		}
	}
	return activeSinks
}
