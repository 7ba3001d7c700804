//go:generate go run go.uber.org/mock/mockgen -source=membership_service.go -destination=../mocks/mock_membership_service.go -package=mocks
package services

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/repositories"
)

type IMembershipService interface {
	Sync(ctx context.Context, userID, username, connectionID string, sink contract.EventSink) ([]domain.GroupID, error)
	AttachRoom(ctx context.Context, userID string, groupID domain.GroupID)
	DetachRoom(userID string, groupID domain.GroupID)
}

// MembershipService bridges durable group membership and transient room
// attachment. Attachment is derived, revocable state: leaving the durable
// group later does not auto-revoke an existing attachment.
type MembershipService struct {
	groups   repositories.IGroupRepository
	registry contract.IRegistry
	log      *slog.Logger
}

func NewMembershipService(log *slog.Logger, groups repositories.IGroupRepository, registry contract.IRegistry) *MembershipService {
	return &MembershipService{groups: groups, registry: registry, log: log}
}

// Sync registers the connection and attaches it to every room whose group
// currently lists the user as a member. On a store failure the connection
// stays registered but attached to no rooms; the client may retry the
// handshake on the same connection.
func (s *MembershipService) Sync(ctx context.Context, userID, username, connectionID string, sink contract.EventSink) ([]domain.GroupID, error) {
	s.registry.Register(userID, username, connectionID, sink)

	groups, err := s.groups.GroupsForMember(userID)
	if err != nil {
		return nil, err
	}

	for _, group := range groups {
		s.registry.Attach(userID, group.ID)
	}
	s.log.Debug("Membership synchronized",
		"user", userID,
		"rooms", len(groups))

	return lo.Map(groups, func(g domain.Group, _ int) domain.GroupID {
		return g.ID
	}), nil
}

// AttachRoom subscribes the connection to a room without checking durable
// membership. This mirrors the transport-level join_group contract; the
// mismatch with durable membership is logged so operators can spot abuse.
func (s *MembershipService) AttachRoom(ctx context.Context, userID string, groupID domain.GroupID) {
	if group, err := s.groups.GetGroup(groupID); err == nil && !group.HasMember(userID) {
		s.log.Warn("Room attach without durable membership",
			"user", userID,
			"group", string(groupID))
	}
	s.registry.Attach(userID, groupID)
}

// DetachRoom unsubscribes the connection from a room. Detaching from a
// room the connection is not attached to is a no-op that still gets
// acknowledged by the caller.
func (s *MembershipService) DetachRoom(userID string, groupID domain.GroupID) {
	s.registry.Detach(userID, groupID)
}
