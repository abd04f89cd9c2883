//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IUserRepository interface {
	CreateUser(user NewUser) (domain.User, error)
	GetUser(id domain.UserID) (domain.User, error)
	GetUsers(ids []domain.UserID) (map[domain.UserID]domain.User, error)
	GetUserByPhone(phone string) (domain.User, error)
	GetUserByHandle(handle string) (domain.User, error)
	GetPasswordHash(id domain.UserID) (string, error)
	UpdateProfile(id domain.UserID, update domain.ProfileUpdate) (domain.User, error)
	UpdatePasswordHash(id domain.UserID, hash string) error
	SetPresence(id domain.UserID, online bool, at time.Time) (domain.User, error)
	SearchByHandle(query string, limit int) ([]domain.User, error)
}

// NewUser is what the account service provides on first verification.
// A nil Username gets the default handle "user<id>".
type NewUser struct {
	Phone        string
	FirstName    string
	LastName     *string
	Username     *string
	IsAnonymous  bool
	PasswordHash string
	CreatedAt    time.Time
}

type UserRepository struct {
	db        *badger.DB
	sequences *Sequences
	index     *UserIndex
	log       *slog.Logger
}

func NewUserRepository(db *badger.DB, sequences *Sequences, index *UserIndex, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, sequences: sequences, index: index, log: log}
}

// CreateUser allocates an id and writes the user with its phone and handle indexes
// in one transaction. A phone or handle already present yields ErrConflict.
func (r *UserRepository) CreateUser(user NewUser) (domain.User, error) {
	id, err := next(r.sequences.users)
	if err != nil {
		return domain.User{}, err
	}
	if user.Username == nil {
		user.Username = lo.ToPtr(fmt.Sprintf("user%d", id))
	}
	disk := diskUser{
		ID:           id,
		Phone:        user.Phone,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Username:     user.Username,
		IsAnonymous:  user.IsAnonymous,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UnixNano(),
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if user.Phone != "" {
			found, err := exists(txn, phoneIndexKey(user.Phone))
			if err != nil {
				return err
			}
			if found {
				return fmt.Errorf("%w: phone %s", errors.ErrConflict, user.Phone)
			}
			if err = setID(txn, phoneIndexKey(user.Phone), id); err != nil {
				return err
			}
		}
		if err := claimHandles(txn, domain.UserID(id), []string{*user.Username}, nil); err != nil {
			return err
		}
		return setJSON(txn, userKey(domain.UserID(id)), disk)
	})
	if err != nil {
		return domain.User{}, err
	}
	created := toUser(disk)
	r.reindex(created)
	return created, nil
}

func (r *UserRepository) GetUser(id domain.UserID) (domain.User, error) {
	var disk diskUser
	err := r.db.View(func(txn *badger.Txn) error {
		return getUser(txn, id, &disk)
	})
	if err != nil {
		return domain.User{}, err
	}
	return toUser(disk), nil
}

// GetUsers loads several users in one read transaction. Unknown ids are skipped.
func (r *UserRepository) GetUsers(ids []domain.UserID) (map[domain.UserID]domain.User, error) {
	users := make(map[domain.UserID]domain.User, len(ids))
	err := r.db.View(func(txn *badger.Txn) error {
		for _, id := range lo.Uniq(ids) {
			var disk diskUser
			err := getUser(txn, id, &disk)
			if stderrors.Is(err, errors.ErrUserNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			users[id] = toUser(disk)
		}
		return nil
	})
	return users, err
}

func (r *UserRepository) GetUserByPhone(phone string) (domain.User, error) {
	return r.getByIndex(phoneIndexKey(phone))
}

// GetUserByHandle matches the primary username or any additional handle.
func (r *UserRepository) GetUserByHandle(handle string) (domain.User, error) {
	return r.getByIndex(handleIndexKey(handle))
}

func (r *UserRepository) getByIndex(key []byte) (domain.User, error) {
	var disk diskUser
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getID(txn, key)
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return getUser(txn, domain.UserID(id), &disk)
	})
	if err != nil {
		return domain.User{}, err
	}
	return toUser(disk), nil
}

func (r *UserRepository) GetPasswordHash(id domain.UserID) (string, error) {
	var disk diskUser
	err := r.db.View(func(txn *badger.Txn) error {
		return getUser(txn, id, &disk)
	})
	return disk.PasswordHash, err
}

// UpdateProfile applies the non-nil fields of update. Handle changes are
// checked against every username and additional handle of other users in
// the same transaction, so two users can never end up owning one handle.
func (r *UserRepository) UpdateProfile(id domain.UserID, update domain.ProfileUpdate) (domain.User, error) {
	var disk diskUser
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := getUser(txn, id, &disk); err != nil {
			return err
		}
		before := toUser(disk).Handles()

		if update.FirstName != nil {
			disk.FirstName = *update.FirstName
		}
		if update.LastName != nil {
			disk.LastName = update.LastName
		}
		if update.Avatar != nil {
			disk.Avatar = update.Avatar
		}
		if update.Bio != nil {
			disk.Bio = update.Bio
		}
		if update.Username != nil {
			disk.Username = update.Username
		}
		if update.AdditionalUsernames != nil {
			disk.AdditionalUsernames = *update.AdditionalUsernames
		}

		after := toUser(disk).Handles()
		if err := checkDistinct(after); err != nil {
			return err
		}
		if err := claimHandles(txn, id, after, before); err != nil {
			return err
		}
		return setJSON(txn, userKey(id), disk)
	})
	if err != nil {
		return domain.User{}, err
	}
	updated := toUser(disk)
	r.reindex(updated)
	return updated, nil
}

func (r *UserRepository) UpdatePasswordHash(id domain.UserID, hash string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var disk diskUser
		if err := getUser(txn, id, &disk); err != nil {
			return err
		}
		disk.PasswordHash = hash
		return setJSON(txn, userKey(id), disk)
	})
}

// SetPresence flips the online flag. Going online clears lastSeen,
// going offline stamps it with at.
func (r *UserRepository) SetPresence(id domain.UserID, online bool, at time.Time) (domain.User, error) {
	var disk diskUser
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := getUser(txn, id, &disk); err != nil {
			return err
		}
		disk.IsOnline = online
		if online {
			disk.LastSeen = nil
		} else {
			disk.LastSeen = lo.ToPtr(at.UnixNano())
		}
		return setJSON(txn, userKey(id), disk)
	})
	if err != nil {
		return domain.User{}, err
	}
	return toUser(disk), nil
}

// SearchByHandle resolves index hits back to stored users.
func (r *UserRepository) SearchByHandle(query string, limit int) ([]domain.User, error) {
	ids, err := r.index.Search(query, limit)
	if err != nil {
		return nil, err
	}
	users, err := r.GetUsers(ids)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(ids, func(id domain.UserID, _ int) (domain.User, bool) {
		user, ok := users[id]
		return user, ok
	}), nil
}

func (r *UserRepository) reindex(user domain.User) {
	if r.index == nil {
		return
	}
	if err := r.index.Index(user); err != nil {
		r.log.Warn("User search index update failed", "user_id", user.ID, "error", err)
	}
}

func getUser(txn *badger.Txn, id domain.UserID, out *diskUser) error {
	err := getJSON(txn, userKey(id), out)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %d", errors.ErrUserNotFound, id)
	}
	return err
}

func checkDistinct(handles []string) error {
	lower := lo.Map(handles, func(h string, _ int) string { return strings.ToLower(h) })
	if len(lo.Uniq(lower)) != len(lower) {
		return fmt.Errorf("%w: duplicated handle", errors.ErrValidation)
	}
	return nil
}

// claimHandles points every handle in wanted at id and releases the ones
// in previous that are no longer wanted. Handles of bots are off limits.
func claimHandles(txn *badger.Txn, id domain.UserID, wanted, previous []string) error {
	for _, handle := range wanted {
		owner, err := getID(txn, handleIndexKey(handle))
		switch {
		case stderrors.Is(err, badger.ErrKeyNotFound):
			botOwned, err := exists(txn, botHandleIndexKey(handle))
			if err != nil {
				return err
			}
			if botOwned {
				return fmt.Errorf("%w: %s", errors.ErrHandleTaken, handle)
			}
			if err = setID(txn, handleIndexKey(handle), int64(id)); err != nil {
				return err
			}
		case err != nil:
			return err
		case domain.UserID(owner) != id:
			return fmt.Errorf("%w: %s", errors.ErrHandleTaken, handle)
		}
	}
	kept := lo.SliceToMap(wanted, func(h string) (string, struct{}) {
		return strings.ToLower(h), struct{}{}
	})
	for _, handle := range previous {
		if _, ok := kept[strings.ToLower(handle)]; ok {
			continue
		}
		if err := txn.Delete(handleIndexKey(handle)); err != nil {
			return err
		}
	}
	return nil
}
