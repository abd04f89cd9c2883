//go:generate go run go.uber.org/mock/mockgen -source=interpreter.go -destination=../mocks/mock_bot_directory.go -package=mocks
// Package botfather runs the conversation of the built-in bot that lets
// users create their own bots.
package botfather

import (
	"chat-relay/domain"
	"chat-relay/errors"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

const (
	cmdNewBot = "/newbot"
	cmdHelp   = "/help"
	cmdMyBots = "/mybots"
)

// BotDirectory is what the interpreter needs from the chat directory.
type BotDirectory interface {
	CreateBot(cmd domain.CreateBotCommand) (domain.Bot, domain.Chat, error)
	ListUserBots(userID domain.UserID) ([]domain.Bot, error)
}

// Interpreter is a per-user state machine:
//
//	idle --/newbot--> awaiting_name --name--> awaiting_username --handle ending in "bot"--> idle
//
// Any other "/" command is answered without touching the session.
type Interpreter struct {
	log       *slog.Logger
	directory BotDirectory
	sessions  *SessionStore
	botUserID domain.UserID
}

func NewInterpreter(log *slog.Logger, directory BotDirectory, sessions *SessionStore, botUserID domain.UserID) *Interpreter {
	return &Interpreter{log: log, directory: directory, sessions: sessions, botUserID: botUserID}
}

func (i *Interpreter) BotUserID() domain.UserID {
	return i.botUserID
}

// Handle computes the transition for one input of userID and returns the
// reply to post. Plain text from an idle user is not handled.
func (i *Interpreter) Handle(userID domain.UserID, input string) (string, bool) {
	input = strings.TrimSpace(input)
	session, save, release := i.sessions.Lock(userID)
	defer release()

	if session == nil {
		if !strings.HasPrefix(input, "/") {
			return "", false
		}
		return i.command(userID, input, save), true
	}

	switch session.State {
	case StateAwaitingName:
		if input == "" {
			save(session)
			return replyEmptyName, true
		}
		save(&Session{State: StateAwaitingUsername, BotName: input})
		return replyAskUsername, true
	case StateAwaitingUsername:
		return i.createBot(userID, session, input, save), true
	default:
		i.log.Warn("Unexpected bot session state, resetting", "user_id", userID, "state", session.State)
		save(nil)
		return i.command(userID, input, save), true
	}
}

func (i *Interpreter) command(userID domain.UserID, input string, save func(*Session)) string {
	switch strings.ToLower(input) {
	case cmdNewBot:
		save(&Session{State: StateAwaitingName})
		return replyAskName
	case cmdHelp:
		return replyHelp
	case cmdMyBots:
		bots, err := i.directory.ListUserBots(userID)
		if err != nil {
			i.log.Warn("Listing bots failed", "user_id", userID, "error", err)
			return replyNoBots
		}
		return replyBotList(bots)
	default:
		return replyUnknown
	}
}

// createBot leaves the session in awaiting_username on any failure so the
// user can retry the handle.
func (i *Interpreter) createBot(userID domain.UserID, session *Session, username string, save func(*Session)) string {
	if !strings.HasSuffix(strings.ToLower(username), "bot") {
		save(session)
		return replyBadSuffix
	}
	bot, _, err := i.directory.CreateBot(domain.CreateBotCommand{
		Name:        session.BotName,
		Username:    username,
		Description: lo.ToPtr(fmt.Sprintf("Bot created by user %d", userID)),
		CreatedBy:   userID,
	})
	switch {
	case err == nil:
		save(nil)
		i.log.Info("Bot created through interpreter", "user_id", userID, "bot_id", bot.ID, "username", bot.Username)
		return replyCreated(bot)
	case stderrors.Is(err, errors.ErrHandleTaken):
		save(session)
		return replyTaken
	case stderrors.Is(err, errors.ErrValidation):
		save(session)
		return replyInvalid
	default:
		i.log.Error("Bot creation failed", "user_id", userID, "username", username, "error", err)
		save(session)
		return replyFailed
	}
}
