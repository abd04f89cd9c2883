//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IChatRepository interface {
	CreateChat(chat domain.Chat, members []domain.Membership) (domain.Chat, error)
	CreatePrivateChat(chat domain.Chat, a, b domain.UserID) (domain.Chat, bool, error)
	FindPrivateChat(a, b domain.UserID) (domain.Chat, error)
	GetChat(id domain.ChatID) (domain.Chat, error)
	GetChatByInvite(link string) (domain.Chat, error)
	AddMember(member domain.Membership) (domain.Membership, bool, error)
	GetMembership(chatID domain.ChatID, userID domain.UserID) (domain.Membership, error)
	ListMembers(chatID domain.ChatID) ([]domain.Membership, error)
	ListUserChats(userID domain.UserID) ([]domain.Chat, error)
}

type ChatRepository struct {
	db        *badger.DB
	sequences *Sequences
	log       *slog.Logger
}

func NewChatRepository(db *badger.DB, sequences *Sequences, log *slog.Logger) *ChatRepository {
	return &ChatRepository{db: db, sequences: sequences, log: log}
}

// CreateChat writes the chat and its initial memberships atomically.
// The chat id is allocated here; the ChatID of each membership is overwritten.
// An invite link already used by another chat yields ErrConflict.
func (r *ChatRepository) CreateChat(chat domain.Chat, members []domain.Membership) (domain.Chat, error) {
	id, err := next(r.sequences.chats)
	if err != nil {
		return domain.Chat{}, err
	}
	chat.ID = domain.ChatID(id)
	err = r.db.Update(func(txn *badger.Txn) error {
		return putChat(txn, chat, members)
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

// CreatePrivateChat returns the private chat of the unordered pair (a, b),
// creating it with both memberships when absent. The pair index is read and
// written in the same transaction as the chat, so a concurrent creator either
// sees the index or fails with badger.ErrConflict and retries. ErrConflict is
// returned when the retries run out.
// The boolean reports whether a chat was created.
func (r *ChatRepository) CreatePrivateChat(chat domain.Chat, a, b domain.UserID) (domain.Chat, bool, error) {
	var result domain.Chat
	var created bool
	err := retryOnConflict(r.log, "create private chat", func() error {
		var err error
		result, created, err = r.createPrivateChat(chat, a, b)
		return err
	})
	if err != nil {
		return domain.Chat{}, false, err
	}
	return result, created, nil
}

func (r *ChatRepository) createPrivateChat(chat domain.Chat, a, b domain.UserID) (domain.Chat, bool, error) {
	var result domain.Chat
	created := false
	err := r.db.Update(func(txn *badger.Txn) error {
		existingID, err := getID(txn, privateChatIndexKey(a, b))
		if err == nil {
			return getChat(txn, domain.ChatID(existingID), &result)
		}
		if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		id, err := next(r.sequences.chats)
		if err != nil {
			return err
		}
		chat.ID = domain.ChatID(id)
		chat.Type = domain.ChatPrivate
		chat.InviteLink = nil
		members := []domain.Membership{
			{UserID: a, Role: domain.RoleMember, JoinedAt: chat.CreatedAt},
			{UserID: b, Role: domain.RoleMember, JoinedAt: chat.CreatedAt},
		}
		if err = putChat(txn, chat, members); err != nil {
			return err
		}
		result, created = chat, true
		return setID(txn, privateChatIndexKey(a, b), id)
	})
	return result, created, err
}

func (r *ChatRepository) FindPrivateChat(a, b domain.UserID) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getID(txn, privateChatIndexKey(a, b))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrChatNotFound
		}
		if err != nil {
			return err
		}
		return getChat(txn, domain.ChatID(id), &chat)
	})
	return chat, err
}

func (r *ChatRepository) GetChat(id domain.ChatID) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		return getChat(txn, id, &chat)
	})
	return chat, err
}

func (r *ChatRepository) GetChatByInvite(link string) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getID(txn, inviteIndexKey(link))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrChatNotFound
		}
		if err != nil {
			return err
		}
		return getChat(txn, domain.ChatID(id), &chat)
	})
	return chat, err
}

// AddMember is idempotent: an existing membership is returned unchanged
// and the boolean is false.
func (r *ChatRepository) AddMember(member domain.Membership) (domain.Membership, bool, error) {
	var result domain.Membership
	added := false
	err := r.db.Update(func(txn *badger.Txn) error {
		var chat domain.Chat
		if err := getChat(txn, member.ChatID, &chat); err != nil {
			return err
		}
		var disk diskMembership
		err := getJSON(txn, memberKey(member.ChatID, member.UserID), &disk)
		if err == nil {
			result = toMembership(disk)
			return nil
		}
		if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		result, added = member, true
		return putMembership(txn, member)
	})
	return result, added, err
}

func (r *ChatRepository) GetMembership(chatID domain.ChatID, userID domain.UserID) (domain.Membership, error) {
	var disk diskMembership
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, memberKey(chatID, userID), &disk)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Membership{}, fmt.Errorf("%w: user %d in chat %d", errors.ErrNotMember, userID, chatID)
	}
	if err != nil {
		return domain.Membership{}, err
	}
	return toMembership(disk), nil
}

// ListMembers returns the memberships of a chat ordered by user id.
func (r *ChatRepository) ListMembers(chatID domain.ChatID) ([]domain.Membership, error) {
	var members []domain.Membership
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, memberPrefixKey(chatID), func(_, val []byte) error {
			var disk diskMembership
			if err := unmarshal(val, &disk); err != nil {
				return err
			}
			members = append(members, toMembership(disk))
			return nil
		})
	})
	return members, err
}

// ListUserChats returns every chat the user belongs to, in chat id order.
func (r *ChatRepository) ListUserChats(userID domain.UserID) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		var ids []domain.ChatID
		err := scanPrefix(txn, userChatsPrefixKey(userID), func(key, _ []byte) error {
			id, err := parseID(lastSuffix(key))
			ids = append(ids, domain.ChatID(id))
			return err
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			var chat domain.Chat
			if err = getChat(txn, id, &chat); err != nil {
				return err
			}
			chats = append(chats, chat)
		}
		return nil
	})
	return chats, err
}

// putChat is shared by every write path creating a chat.
func putChat(txn *badger.Txn, chat domain.Chat, members []domain.Membership) error {
	if chat.InviteLink != nil {
		taken, err := exists(txn, inviteIndexKey(*chat.InviteLink))
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: invite link", errors.ErrConflict)
		}
		if err = setID(txn, inviteIndexKey(*chat.InviteLink), int64(chat.ID)); err != nil {
			return err
		}
	}
	if err := setJSON(txn, chatKey(chat.ID), fromChat(chat)); err != nil {
		return err
	}
	for _, member := range members {
		member.ChatID = chat.ID
		if err := putMembership(txn, member); err != nil {
			return err
		}
	}
	return nil
}

func putMembership(txn *badger.Txn, member domain.Membership) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}
	disk := diskMembership{
		ChatID:   int64(member.ChatID),
		UserID:   int64(member.UserID),
		Role:     string(member.Role),
		JoinedAt: member.JoinedAt.UnixNano(),
	}
	if err := setJSON(txn, memberKey(member.ChatID, member.UserID), disk); err != nil {
		return err
	}
	return txn.Set(userChatKey(member.UserID, member.ChatID), []byte{})
}

func getChat(txn *badger.Txn, id domain.ChatID, out *domain.Chat) error {
	var disk diskChat
	err := getJSON(txn, chatKey(id), &disk)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %d", errors.ErrChatNotFound, id)
	}
	if err != nil {
		return err
	}
	*out = toChat(disk)
	return nil
}
