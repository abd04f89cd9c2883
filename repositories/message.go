//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) (domain.Message, error)
	GetMessage(id domain.MessageID) (domain.Message, error)
	UpdateMessage(id domain.MessageID, content string, at time.Time) (domain.Message, error)
	GetMessages(chatID domain.ChatID, limit int) ([]domain.Message, error)
	GetLastMessage(chatID domain.ChatID) (*domain.Message, error)
}

type MessageRepository struct {
	db        *badger.DB
	sequences *Sequences
	log       *slog.Logger
}

func NewMessageRepository(db *badger.DB, sequences *Sequences, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, sequences: sequences, log: log}
}

// StoreMessage persists a message in BadgerDB and returns it with its id.
// The key is formatted as "msg:{chat}:{timestamp_padded}:{id}" so that:
//  1. A prefix scan returns the messages of a chat sorted by creation time.
//  2. Two messages created at the same nanosecond are ordered by id.
//
// CreatedAt is never allowed to go back in time within a chat: it is raised
// to the creation time of the chat's latest message when a clock moves
// backwards. The latest message is read inside the write transaction, a
// concurrent writer on the same chat makes Badger reject one of the two
// commits and the rejected one is retried a bounded number of times.
func (m *MessageRepository) StoreMessage(message domain.Message) (domain.Message, error) {
	id, err := next(m.sequences.messages)
	if err != nil {
		return domain.Message{}, err
	}
	message.ID = domain.MessageID(id)
	if message.Type == "" {
		message.Type = domain.MessageText
	}
	requested := message.CreatedAt

	var stored domain.Message
	err = retryOnConflict(m.log, "store message", func() error {
		stored = message
		return m.db.Update(func(txn *badger.Txn) error {
			last, err := lastMessage(txn, stored.ChatID)
			if err != nil {
				return err
			}
			if last != nil && stored.CreatedAt.Before(last.CreatedAt) {
				stored.CreatedAt = last.CreatedAt
			}
			stored.UpdatedAt = stored.CreatedAt
			key := messageKey(stored.ChatID, stored.CreatedAt, stored.ID)
			if err = setJSON(txn, key, fromMessage(stored)); err != nil {
				return err
			}
			return txn.Set(messageIndexKey(stored.ID), key)
		})
	})
	if err != nil {
		return domain.Message{}, err
	}
	if !stored.CreatedAt.Equal(requested) {
		m.log.Debug("Message creation time clamped", "chat_id", stored.ChatID, "requested", requested, "stored", stored.CreatedAt)
	}
	return stored, nil
}

func (m *MessageRepository) GetMessage(id domain.MessageID) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		_, disk, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		message = toMessage(disk)
		return nil
	})
	return message, err
}

// UpdateMessage replaces the content in place. The key does not change,
// the message keeps its position in the chat.
func (m *MessageRepository) UpdateMessage(id domain.MessageID, content string, at time.Time) (domain.Message, error) {
	var message domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		key, disk, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		disk.Content = content
		disk.IsEdited = true
		disk.UpdatedAt = at.UnixNano()
		message = toMessage(disk)
		return setJSON(txn, key, disk)
	})
	return message, err
}

// GetMessages returns the `limit` most recent messages of a chat in
// ascending order. The scan starts from the newest key and walks back,
// a limit lower than one means every message.
func (m *MessageRepository) GetMessages(chatID domain.ChatID, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		return reverseScan(txn, chatID, func(disk diskMessage) bool {
			messages = append(messages, toMessage(disk))
			if limit > 0 && len(messages) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
				return false
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return lo.Reverse(messages), nil
}

// GetLastMessage returns nil when the chat has no message yet.
func (m *MessageRepository) GetLastMessage(chatID domain.ChatID) (*domain.Message, error) {
	var last *domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		var err error
		last, err = lastMessage(txn, chatID)
		return err
	})
	return last, err
}

func lastMessage(txn *badger.Txn, chatID domain.ChatID) (*domain.Message, error) {
	var last *domain.Message
	err := reverseScan(txn, chatID, func(disk diskMessage) bool {
		last = lo.ToPtr(toMessage(disk))
		return false
	})
	return last, err
}

// reverseScan walks the messages of a chat from the newest to the oldest
// until fn returns false.
func reverseScan(txn *badger.Txn, chatID domain.ChatID, fn func(diskMessage) bool) error {
	prefix := messagePrefixKey(chatID)
	options := badger.DefaultIteratorOptions
	options.Reverse = true
	options.Prefix = prefix
	it := txn.NewIterator(options)
	defer it.Close()

	// Seek past the newest possible key: msg:{chat}:9999999999999999999
	seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
	for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
		var disk diskMessage
		if err := it.Item().Value(func(val []byte) error {
			return unmarshal(val, &disk)
		}); err != nil {
			return err
		}
		if !fn(disk) {
			return nil
		}
	}
	return nil
}

func getMessage(txn *badger.Txn, id domain.MessageID) ([]byte, diskMessage, error) {
	var disk diskMessage
	item, err := txn.Get(messageIndexKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, disk, fmt.Errorf("%w: %d", errors.ErrMessageNotFound, id)
	}
	if err != nil {
		return nil, disk, err
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return nil, disk, err
	}
	if err = getJSON(txn, key, &disk); err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil, disk, fmt.Errorf("%w: %d", errors.ErrMessageNotFound, id)
		}
		return nil, disk, err
	}
	return key, disk, nil
}

func fromMessage(message domain.Message) diskMessage {
	disk := diskMessage{
		ID:        int64(message.ID),
		ChatID:    int64(message.ChatID),
		SenderID:  int64(message.SenderID),
		Content:   message.Content,
		Type:      string(message.Type),
		Metadata:  message.Metadata,
		IsEdited:  message.IsEdited,
		CreatedAt: message.CreatedAt.UnixNano(),
		UpdatedAt: message.UpdatedAt.UnixNano(),
	}
	if message.ReplyToID != nil {
		disk.ReplyToID = lo.ToPtr(int64(*message.ReplyToID))
	}
	return disk
}
