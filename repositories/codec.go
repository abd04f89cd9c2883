package repositories

import (
	"chat-relay/domain"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// Disk representations. They are kept apart from the domain types so the
// JSON shape served to clients can evolve without touching stored bytes,
// and so secrets such as the password hash stay in this package.

type diskUser struct {
	ID                  int64    `json:"id"`
	Phone               string   `json:"phone"`
	FirstName           string   `json:"first_name"`
	LastName            *string  `json:"last_name,omitempty"`
	Username            *string  `json:"username,omitempty"`
	AdditionalUsernames []string `json:"additional_usernames,omitempty"`
	IsAnonymous         bool     `json:"is_anonymous"`
	Avatar              *string  `json:"avatar,omitempty"`
	Bio                 *string  `json:"bio,omitempty"`
	PasswordHash        string   `json:"password_hash,omitempty"`
	IsOnline            bool     `json:"is_online"`
	LastSeen            *int64   `json:"last_seen,omitempty"`
	CreatedAt           int64    `json:"created_at"`
}

type diskChat struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
	IsPublic    bool    `json:"is_public"`
	InviteLink  *string `json:"invite_link,omitempty"`
	CreatedBy   int64   `json:"created_by"`
	CreatedAt   int64   `json:"created_at"`
}

type diskMembership struct {
	ChatID   int64  `json:"chat_id"`
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	JoinedAt int64  `json:"joined_at"`
}

type diskMessage struct {
	ID        int64           `json:"id"`
	ChatID    int64           `json:"chat_id"`
	SenderID  int64           `json:"sender_id"`
	Content   string          `json:"content"`
	Type      string          `json:"type"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	IsEdited  bool            `json:"is_edited"`
	ReplyToID *int64          `json:"reply_to_id,omitempty"`
	CreatedAt int64           `json:"created_at"`
	UpdatedAt int64           `json:"updated_at"`
}

type diskBot struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Username    string  `json:"username"`
	Token       string  `json:"token"`
	Description *string `json:"description,omitempty"`
	CreatedBy   int64   `json:"created_by"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   int64   `json:"created_at"`
}

func fromNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func toUser(d diskUser) domain.User {
	user := domain.User{
		ID:                  domain.UserID(d.ID),
		Phone:               d.Phone,
		FirstName:           d.FirstName,
		LastName:            d.LastName,
		Username:            d.Username,
		AdditionalUsernames: d.AdditionalUsernames,
		IsAnonymous:         d.IsAnonymous,
		Avatar:              d.Avatar,
		Bio:                 d.Bio,
		IsOnline:            d.IsOnline,
		CreatedAt:           fromNano(d.CreatedAt),
	}
	if d.LastSeen != nil {
		user.LastSeen = lo.ToPtr(fromNano(*d.LastSeen))
	}
	return user
}

func toChat(d diskChat) domain.Chat {
	return domain.Chat{
		ID:          domain.ChatID(d.ID),
		Type:        domain.ChatType(d.Type),
		Name:        d.Name,
		Description: d.Description,
		Avatar:      d.Avatar,
		IsPublic:    d.IsPublic,
		InviteLink:  d.InviteLink,
		CreatedBy:   domain.UserID(d.CreatedBy),
		CreatedAt:   fromNano(d.CreatedAt),
	}
}

func fromChat(c domain.Chat) diskChat {
	return diskChat{
		ID:          int64(c.ID),
		Type:        string(c.Type),
		Name:        c.Name,
		Description: c.Description,
		Avatar:      c.Avatar,
		IsPublic:    c.IsPublic,
		InviteLink:  c.InviteLink,
		CreatedBy:   int64(c.CreatedBy),
		CreatedAt:   c.CreatedAt.UnixNano(),
	}
}

func toMembership(d diskMembership) domain.Membership {
	return domain.Membership{
		ChatID:   domain.ChatID(d.ChatID),
		UserID:   domain.UserID(d.UserID),
		Role:     domain.Role(d.Role),
		JoinedAt: fromNano(d.JoinedAt),
	}
}

func toMessage(d diskMessage) domain.Message {
	message := domain.Message{
		ID:        domain.MessageID(d.ID),
		ChatID:    domain.ChatID(d.ChatID),
		SenderID:  domain.UserID(d.SenderID),
		Content:   d.Content,
		Type:      domain.MessageType(d.Type),
		Metadata:  d.Metadata,
		IsEdited:  d.IsEdited,
		CreatedAt: fromNano(d.CreatedAt),
		UpdatedAt: fromNano(d.UpdatedAt),
	}
	if d.ReplyToID != nil {
		message.ReplyToID = lo.ToPtr(domain.MessageID(*d.ReplyToID))
	}
	return message
}

func toBot(d diskBot) domain.Bot {
	return domain.Bot{
		ID:          domain.BotID(d.ID),
		Name:        d.Name,
		Username:    d.Username,
		Token:       d.Token,
		Description: d.Description,
		CreatedBy:   domain.UserID(d.CreatedBy),
		IsActive:    d.IsActive,
		CreatedAt:   fromNano(d.CreatedAt),
	}
}

// getJSON loads the value stored at key into out.
// It returns badger.ErrKeyNotFound untouched so callers can map it.
func getJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func setJSON(txn *badger.Txn, key []byte, value any) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return txn.Set(key, bytes)
}

// getID reads an index entry holding a decimal id.
func getID(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if err != nil {
		return 0, err
	}
	var id int64
	err = item.Value(func(val []byte) error {
		id, err = strconv.ParseInt(string(val), 10, 64)
		return err
	})
	return id, err
}

func setID(txn *badger.Txn, key []byte, id int64) error {
	return txn.Set(key, []byte(strconv.FormatInt(id, 10)))
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// scanPrefix calls fn for every key under prefix, in key order.
func scanPrefix(txn *badger.Txn, prefix []byte, fn func(key, val []byte) error) error {
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	it := txn.NewIterator(options)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		if err := item.Value(func(val []byte) error {
			return fn(key, val)
		}); err != nil {
			return err
		}
	}
	return nil
}

func unmarshal(val []byte, out any) error {
	return json.Unmarshal(val, out)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
