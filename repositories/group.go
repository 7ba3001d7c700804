//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"campus-chat/domain"
	"campus-chat/errors"
)

type IGroupRepository interface {
	SaveGroup(group domain.Group) error
	GetGroup(id domain.GroupID) (domain.Group, error)
	GroupsForMember(userID string) ([]domain.Group, error)
	TouchActivity(id domain.GroupID, at time.Time) error
}

type GroupRepository struct {
	db *badger.DB
}

func NewGroupRepository(db *badger.DB) GroupRepository {
	return GroupRepository{db: db}
}

type diskMember struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	JoinedAt int64  `json:"joined_at"`
}

type diskGroup struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Members      []diskMember `json:"members"`
	CreatedBy    string       `json:"created_by"`
	IsPrivate    bool         `json:"is_private"`
	MaxMembers   int          `json:"max_members"`
	Avatar       string       `json:"avatar,omitempty"`
	LastActivity int64        `json:"last_activity"`
	CreatedAt    int64        `json:"created_at"`
	UpdatedAt    int64        `json:"updated_at"`
}

// SaveGroup writes the group record and maintains the per-member index
// "member:{user_id}:{group_id}" used by GroupsForMember. Index entries of
// removed members are cleared in the same transaction.
func (g GroupRepository) SaveGroup(group domain.Group) error {
	bytes, err := json.Marshal(fromDomainGroup(group))
	if err != nil {
		return err
	}
	return g.db.Update(func(txn *badger.Txn) error {
		previous, err := readGroup(txn, group.ID)
		if err == nil {
			for _, m := range previous.Members {
				if !group.HasMember(m.UserID) {
					if err := txn.Delete(memberKey(m.UserID, group.ID)); err != nil {
						return err
					}
				}
			}
		}
		for _, m := range group.Members {
			if err := txn.Set(memberKey(m.UserID, group.ID), []byte(group.ID)); err != nil {
				return err
			}
		}
		return txn.Set(groupKey(group.ID), bytes)
	})
}

func (g GroupRepository) GetGroup(id domain.GroupID) (domain.Group, error) {
	var group domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		var err error
		group, err = readGroup(txn, id)
		return err
	})
	return group, err
}

// GroupsForMember scans the member index and resolves each hit into a full
// group record. Used by the membership synchronizer at handshake time.
func (g GroupRepository) GroupsForMember(userID string) ([]domain.Group, error) {
	var groups []domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		prefix := []byte("member:" + userID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			groupID, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			group, err := readGroup(txn, domain.GroupID(groupID))
			if err != nil {
				// Dangling index entry, the group was deleted
				continue
			}
			groups = append(groups, group)
		}
		return nil
	})
	return groups, err
}

// TouchActivity bumps the group's lastActivity timestamp, best-effort.
func (g GroupRepository) TouchActivity(id domain.GroupID, at time.Time) error {
	return g.db.Update(func(txn *badger.Txn) error {
		group, err := readGroup(txn, id)
		if err != nil {
			return err
		}
		group.LastActivity = at
		bytes, err := json.Marshal(fromDomainGroup(group))
		if err != nil {
			return err
		}
		return txn.Set(groupKey(id), bytes)
	})
}

func groupKey(id domain.GroupID) []byte {
	return []byte("group:" + string(id))
}

func memberKey(userID string, groupID domain.GroupID) []byte {
	return []byte("member:" + userID + ":" + string(groupID))
}

func readGroup(txn *badger.Txn, id domain.GroupID) (domain.Group, error) {
	item, err := txn.Get(groupKey(id))
	if err != nil {
		return domain.Group{}, errors.ErrGroupNotFound
	}
	var dg diskGroup
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &dg)
	})
	if err != nil {
		return domain.Group{}, err
	}
	return toDomainGroup(dg), nil
}

func fromDomainGroup(group domain.Group) diskGroup {
	return diskGroup{
		ID:          string(group.ID),
		Name:        group.Name,
		Description: group.Description,
		Members: lo.Map(group.Members, func(m domain.Member, _ int) diskMember {
			return diskMember{
				UserID:   m.UserID,
				Username: m.Username,
				Role:     string(m.Role),
				JoinedAt: m.JoinedAt.UnixNano(),
			}
		}),
		CreatedBy:    group.CreatedBy,
		IsPrivate:    group.IsPrivate,
		MaxMembers:   group.MaxMembers,
		Avatar:       group.Avatar,
		LastActivity: group.LastActivity.UnixNano(),
		CreatedAt:    group.CreatedAt.UnixNano(),
		UpdatedAt:    group.UpdatedAt.UnixNano(),
	}
}

func toDomainGroup(dg diskGroup) domain.Group {
	return domain.Group{
		ID:          domain.GroupID(dg.ID),
		Name:        dg.Name,
		Description: dg.Description,
		Members: lo.Map(dg.Members, func(m diskMember, _ int) domain.Member {
			return domain.Member{
				UserID:   m.UserID,
				Username: m.Username,
				Role:     domain.Role(m.Role),
				JoinedAt: time.Unix(0, m.JoinedAt).UTC(),
			}
		}),
		CreatedBy:    dg.CreatedBy,
		IsPrivate:    dg.IsPrivate,
		MaxMembers:   dg.MaxMembers,
		Avatar:       dg.Avatar,
		LastActivity: time.Unix(0, dg.LastActivity).UTC(),
		CreatedAt:    time.Unix(0, dg.CreatedAt).UTC(),
		UpdatedAt:    time.Unix(0, dg.UpdatedAt).UTC(),
	}
}
