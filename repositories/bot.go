//go:generate go run go.uber.org/mock/mockgen -source=bot.go -destination=../mocks/mock_bot_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IBotRepository interface {
	CreateBot(bot domain.Bot, chat domain.Chat) (domain.Bot, domain.Chat, error)
	EnsureBot(bot domain.Bot) (domain.Bot, error)
	GetBotByUsername(username string) (domain.Bot, error)
	ListUserBots(userID domain.UserID) ([]domain.Bot, error)
}

type BotRepository struct {
	db        *badger.DB
	sequences *Sequences
	log       *slog.Logger
}

func NewBotRepository(db *badger.DB, sequences *Sequences, log *slog.Logger) *BotRepository {
	return &BotRepository{db: db, sequences: sequences, log: log}
}

// CreateBot writes the bot, its handle and owner indexes, its chat and the
// owner membership in one transaction. Nothing is written when the handle
// is already used by another bot or user.
func (r *BotRepository) CreateBot(bot domain.Bot, chat domain.Chat) (domain.Bot, domain.Chat, error) {
	botID, err := next(r.sequences.bots)
	if err != nil {
		return domain.Bot{}, domain.Chat{}, err
	}
	chatID, err := next(r.sequences.chats)
	if err != nil {
		return domain.Bot{}, domain.Chat{}, err
	}
	bot.ID = domain.BotID(botID)
	bot.Token = newBotToken(bot.ID)
	chat.ID = domain.ChatID(chatID)
	chat.Type = domain.ChatBot

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := claimBotHandle(txn, bot.Username); err != nil {
			return err
		}
		if err := putBot(txn, bot); err != nil {
			return err
		}
		owner := domain.Membership{UserID: bot.CreatedBy, Role: domain.RoleOwner, JoinedAt: chat.CreatedAt}
		return putChat(txn, chat, []domain.Membership{owner})
	})
	if err != nil {
		return domain.Bot{}, domain.Chat{}, err
	}
	r.log.Debug("Bot created", "bot_id", bot.ID, "username", bot.Username, "owner", bot.CreatedBy)
	return bot, chat, nil
}

// EnsureBot returns the bot registered under bot.Username, creating it
// without any chat when absent. Used for the built-in bot at startup.
func (r *BotRepository) EnsureBot(bot domain.Bot) (domain.Bot, error) {
	existing, err := r.GetBotByUsername(bot.Username)
	if err == nil {
		return existing, nil
	}
	if !stderrors.Is(err, errors.ErrBotNotFound) {
		return domain.Bot{}, err
	}
	id, err := next(r.sequences.bots)
	if err != nil {
		return domain.Bot{}, err
	}
	bot.ID = domain.BotID(id)
	bot.Token = newBotToken(bot.ID)
	err = r.db.Update(func(txn *badger.Txn) error {
		taken, err := exists(txn, botHandleIndexKey(bot.Username))
		if err != nil || taken {
			return err
		}
		return putBot(txn, bot)
	})
	if err != nil {
		return domain.Bot{}, err
	}
	return r.GetBotByUsername(bot.Username)
}

func (r *BotRepository) GetBotByUsername(username string) (domain.Bot, error) {
	var bot domain.Bot
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getID(txn, botHandleIndexKey(username))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", errors.ErrBotNotFound, username)
		}
		if err != nil {
			return err
		}
		return getBot(txn, domain.BotID(id), &bot)
	})
	return bot, err
}

// ListUserBots returns the bots created by the user in creation order.
func (r *BotRepository) ListUserBots(userID domain.UserID) ([]domain.Bot, error) {
	var bots []domain.Bot
	err := r.db.View(func(txn *badger.Txn) error {
		var ids []domain.BotID
		err := scanPrefix(txn, botOwnerPrefixKey(userID), func(key, _ []byte) error {
			id, err := parseID(lastSuffix(key))
			ids = append(ids, domain.BotID(id))
			return err
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			var bot domain.Bot
			if err = getBot(txn, id, &bot); err != nil {
				return err
			}
			bots = append(bots, bot)
		}
		return nil
	})
	return bots, err
}

// claimBotHandle rejects a handle owned by another bot or by a user.
// Bots and users share one handle namespace, compared case-insensitively.
func claimBotHandle(txn *badger.Txn, handle string) error {
	for _, key := range [][]byte{botHandleIndexKey(handle), handleIndexKey(handle)} {
		taken, err := exists(txn, key)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", errors.ErrHandleTaken, handle)
		}
	}
	return nil
}

func putBot(txn *badger.Txn, bot domain.Bot) error {
	disk := diskBot{
		ID:          int64(bot.ID),
		Name:        bot.Name,
		Username:    bot.Username,
		Token:       bot.Token,
		Description: bot.Description,
		CreatedBy:   int64(bot.CreatedBy),
		IsActive:    bot.IsActive,
		CreatedAt:   bot.CreatedAt.UnixNano(),
	}
	if err := setJSON(txn, botKey(bot.ID), disk); err != nil {
		return err
	}
	if err := setID(txn, botHandleIndexKey(bot.Username), int64(bot.ID)); err != nil {
		return err
	}
	return txn.Set(botOwnerKey(bot.CreatedBy, bot.ID), []byte{})
}

func getBot(txn *badger.Txn, id domain.BotID, out *domain.Bot) error {
	var disk diskBot
	err := getJSON(txn, botKey(id), &disk)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %d", errors.ErrBotNotFound, id)
	}
	if err != nil {
		return err
	}
	*out = toBot(disk)
	return nil
}

// newBotToken follows the "{id}:{secret}" shape of bot API tokens.
func newBotToken(id domain.BotID) string {
	return fmt.Sprintf("%d:%s", id, strings.ReplaceAll(uuid.NewString(), "-", ""))
}
