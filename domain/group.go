// Package domain contains core concepts of the chat system.
// This file defines Group entities and membership invariants.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type GroupID string

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Member is one entry of a group's durable membership list.
// Members is unique by UserID.
type Member struct {
	UserID   string
	Username string
	Role     Role
	JoinedAt time.Time
}

// Group is the durable unit of chat scoping. Its creator is always
// present as an admin member.
type Group struct {
	ID           GroupID
	Name         string
	Description  string
	Members      []Member
	CreatedBy    string
	IsPrivate    bool
	MaxMembers   int
	Avatar       string
	LastActivity time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewGroup(name, description, creatorID, creatorName string) Group {
	now := time.Now().UTC()
	return Group{
		ID:          GroupID(uuid.NewString()),
		Name:        name,
		Description: description,
		Members: []Member{{
			UserID:   creatorID,
			Username: creatorName,
			Role:     RoleAdmin,
			JoinedAt: now,
		}},
		CreatedBy:    creatorID,
		MaxMembers:   100,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasMember reports whether userID is part of the durable membership list.
func (g Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// AddMember appends a member, keeping the list unique by UserID.
// Re-adding an existing member is a no-op.
func (g *Group) AddMember(member Member) {
	if g.HasMember(member.UserID) {
		return
	}
	g.Members = append(g.Members, member)
	g.UpdatedAt = time.Now().UTC()
}

// RemoveMember drops a member by id. Removing an absent member is a no-op.
func (g *Group) RemoveMember(userID string) {
	for i, m := range g.Members {
		if m.UserID == userID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			g.UpdatedAt = time.Now().UTC()
			return
		}
	}
}
