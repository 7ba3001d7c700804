//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"campus-chat/domain"
	"campus-chat/errors"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessage(id uuid.UUID) (domain.Message, error)
	UpdateMessage(message domain.Message) error
	DeleteMessage(id uuid.UUID) error
	GetMessages(groupID domain.GroupID, cursor *string) ([]domain.Message, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// diskMessage is the stored shape of a message, decoupled from the domain
// struct so the on-disk layout can evolve independently.
type diskMessage struct {
	ID         string     `json:"id"`
	GroupID    string     `json:"group_id"`
	SenderID   string     `json:"sender_id"`
	SenderName string     `json:"sender_name"`
	Content    string     `json:"content"`
	Type       string     `json:"type"`
	Edited     bool       `json:"edited"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	CreatedAt  int64      `json:"created_at"`
	UpdatedAt  int64      `json:"updated_at"`
}

// StoreMessage persists a message in BadgerDB.
// The primary key is formatted as "msg:{group_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// A secondary index "msgid:{uuid}" resolves a message id to its primary key
// so edits and deletions don't need the creation timestamp.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	key := primaryKey(message)
	bytes, err := json.Marshal(fromDomainMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set(indexKey(message.ID), []byte(key))
	})
}

func (m MessageRepository) GetMessage(id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		key, err := resolvePrimaryKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return errors.ErrMessageNotFound
		}
		return item.Value(func(value []byte) error {
			var dm diskMessage
			if err := json.Unmarshal(value, &dm); err != nil {
				return err
			}
			message, err = toDomainMessage(dm)
			return err
		})
	})
	return message, err
}

// UpdateMessage rewrites the stored record in place. The primary key keeps
// the original creation timestamp, so room ordering is unaffected by edits.
func (m MessageRepository) UpdateMessage(message domain.Message) error {
	bytes, err := json.Marshal(fromDomainMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		key, err := resolvePrimaryKey(txn, message.ID)
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
}

// DeleteMessage permanently removes the record and its id index.
func (m MessageRepository) DeleteMessage(id uuid.UUID) error {
	return m.db.Update(func(txn *badger.Txn) error {
		key, err := resolvePrimaryKey(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(indexKey(id))
	})
}

// GetMessages retrieves the latest page of messages for a group using a
// reverse prefix scan. Thanks to the padded timestamp in the key, messages
// are naturally sorted by time. It stops collecting once the configured
// limitMessages is reached and returns a cursor for the next page.
func (m MessageRepository) GetMessages(groupID domain.GroupID, cursor *string) ([]domain.Message, *string, error) {
	var byteMessages [][]byte
	var messages []domain.Message
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", groupID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible timestamp, then walk backwards
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, value)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for _, b := range byteMessages {
		var dm diskMessage
		if err = json.Unmarshal(b, &dm); err != nil {
			return nil, nil, err
		}
		message, err := toDomainMessage(dm)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	return messages, &lastKey, nil
}

func primaryKey(message domain.Message) string {
	return fmt.Sprintf("msg:%s:%019d:%s",
		message.GroupID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
}

func indexKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

func resolvePrimaryKey(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get(indexKey(id))
	if err != nil {
		return nil, errors.ErrMessageNotFound
	}
	return item.ValueCopy(nil)
}

func fromDomainMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:         message.ID.String(),
		GroupID:    string(message.GroupID),
		SenderID:   message.SenderID,
		SenderName: message.SenderName,
		Content:    message.Content,
		Type:       string(message.Type),
		Edited:     message.Edited,
		EditedAt:   message.EditedAt,
		CreatedAt:  message.CreatedAt.UnixNano(),
		UpdatedAt:  message.UpdatedAt.UnixNano(),
	}
}

func toDomainMessage(dm diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:         parsedID,
		GroupID:    domain.GroupID(dm.GroupID),
		SenderID:   dm.SenderID,
		SenderName: dm.SenderName,
		Content:    dm.Content,
		Type:       domain.MessageType(dm.Type),
		Edited:     dm.Edited,
		EditedAt:   dm.EditedAt,
		CreatedAt:  time.Unix(0, dm.CreatedAt).UTC(),
		UpdatedAt:  time.Unix(0, dm.UpdatedAt).UTC(),
	}, nil
}
