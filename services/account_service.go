//go:generate go run go.uber.org/mock/mockgen -source=account_service.go -destination=../mocks/mock_account_service.go -package=mocks
package services

import (
	"chat-relay/auth"
	"chat-relay/botfather"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"chat-relay/runtime"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	anonymousPrefix = "+888"
	minSearchLength = 2
	maxSearchHits   = 10
	builtinBotName  = "BotFather"
	builtinBotShort = "botfather"
	savedMessages   = "Saved Messages"
)

type IAccountService interface {
	Verify(cmd domain.VerifyCommand) (domain.VerifyResult, error)
	GetUser(id domain.UserID) (domain.User, error)
	UpdateProfile(id domain.UserID, update domain.ProfileUpdate) (domain.User, error)
	UpdatePassword(cmd domain.UpdatePasswordCommand) error
	SetPresence(id domain.UserID, online bool) (domain.User, error)
	SearchUsers(query string) ([]domain.User, error)
}

// AccountService verifies phones, onboards new users and owns the built-in bot identity.
type AccountService struct {
	users            repositories.IUserRepository
	chats            repositories.IChatRepository
	bots             repositories.IBotRepository
	directory        contract.IChatDirectory
	tokens           *auth.TokenIssuer
	verificationCode string
	now              func() time.Time
	provisioning     *runtime.KeyedMutex
	log              *slog.Logger

	mu        sync.Mutex
	botUserID domain.UserID
}

func NewAccountService(log *slog.Logger, users repositories.IUserRepository, chats repositories.IChatRepository,
	bots repositories.IBotRepository, directory contract.IChatDirectory, tokens *auth.TokenIssuer,
	verificationCode string) *AccountService {
	return &AccountService{
		users:            users,
		chats:            chats,
		bots:             bots,
		directory:        directory,
		tokens:           tokens,
		verificationCode: verificationCode,
		now:              func() time.Time { return time.Now().UTC() },
		provisioning:     runtime.NewKeyedMutex(),
		log:              log,
	}
}

// EnsureBuiltinBot creates the system user speaking for the built-in bot and
// the bot record itself when they are missing. Safe to call at every start.
func (s *AccountService) EnsureBuiltinBot() (domain.User, domain.Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetUserByHandle(builtinBotShort)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		user, err = s.users.CreateUser(repositories.NewUser{
			FirstName: builtinBotName,
			Username:  lo.ToPtr(builtinBotShort),
			CreatedAt: s.now(),
		})
	}
	if err != nil {
		return domain.User{}, domain.Bot{}, fmt.Errorf("built-in bot user: %w", err)
	}

	bot, err := s.bots.EnsureBot(domain.Bot{
		Name:        builtinBotName,
		Username:    builtinBotShort,
		Description: lo.ToPtr("Use this bot to create and manage your other bots."),
		CreatedBy:   user.ID,
		IsActive:    true,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return domain.User{}, domain.Bot{}, fmt.Errorf("built-in bot: %w", err)
	}
	s.botUserID = user.ID
	s.log.Info("Built-in bot ready", "user_id", user.ID, "bot_id", bot.ID)
	return user, bot, nil
}

// Verify checks the verification code, then the password when the account has
// one. Unknown phones are registered on the fly. Every successful verification
// makes sure the user owns its Saved Messages and built-in bot chats, so an
// onboarding cut short is completed on the next attempt.
func (s *AccountService) Verify(cmd domain.VerifyCommand) (domain.VerifyResult, error) {
	if err := auth.Validate(cmd); err != nil {
		return domain.VerifyResult{}, err
	}
	if cmd.Code != s.verificationCode {
		return domain.VerifyResult{}, errors.ErrInvalidCode
	}

	created := false
	user, err := s.users.GetUserByPhone(cmd.Phone)
	switch {
	case err == nil:
		err = s.checkPassword(user.ID, cmd.Password)
	case stderrors.Is(err, errors.ErrUserNotFound):
		user, created, err = s.register(cmd)
	}
	if err != nil {
		return domain.VerifyResult{}, err
	}
	if err = s.provision(user); err != nil {
		return domain.VerifyResult{}, err
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return domain.VerifyResult{}, err
	}
	if created {
		s.log.Info("User registered", "user_id", user.ID, "anonymous", user.IsAnonymous)
	}
	return domain.VerifyResult{User: user, Token: token, Created: created}, nil
}

func (s *AccountService) checkPassword(userID domain.UserID, password string) error {
	hash, err := s.users.GetPasswordHash(userID)
	if err != nil {
		return err
	}
	if hash == "" {
		return nil
	}
	if password == "" {
		return errors.ErrPasswordRequired
	}
	match, err := auth.ComparePassword(password, hash)
	if err != nil {
		return err
	}
	if !match {
		return errors.ErrInvalidCredentials
	}
	return nil
}

func (s *AccountService) register(cmd domain.VerifyCommand) (domain.User, bool, error) {
	newUser := repositories.NewUser{Phone: cmd.Phone, FirstName: "User", CreatedAt: s.now()}
	if strings.HasPrefix(cmd.Phone, anonymousPrefix) {
		newUser.FirstName, newUser.LastName, newUser.IsAnonymous = "Anonymous", lo.ToPtr("User"), true
	}
	if cmd.Password != "" {
		if err := auth.ValidatePassword(cmd.Password); err != nil {
			return domain.User{}, false, err
		}
		hash, err := auth.HashPassword(cmd.Password)
		if err != nil {
			return domain.User{}, false, err
		}
		newUser.PasswordHash = hash
	}

	user, err := s.users.CreateUser(newUser)
	if stderrors.Is(err, errors.ErrConflict) {
		// Lost a race against a concurrent verification of the same phone
		if user, err = s.users.GetUserByPhone(cmd.Phone); err != nil {
			return domain.User{}, false, err
		}
		return user, false, s.checkPassword(user.ID, cmd.Password)
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return user, true, nil
}

// provision creates whichever of the Saved Messages chat and the chat with the
// built-in bot the user is missing, and greets the user in a new bot chat.
func (s *AccountService) provision(user domain.User) error {
	botUserID, err := s.builtinUser()
	if err != nil {
		return err
	}
	unlock := s.provisioning.Lock(fmt.Sprintf("user:%d", user.ID))
	defer unlock()

	hasSelf, hasBot, err := s.defaultChats(user.ID, botUserID)
	if err != nil {
		return err
	}

	now := s.now()
	if !hasSelf {
		_, err = s.chats.CreateChat(domain.Chat{Type: domain.ChatSelf, Name: savedMessages, CreatedBy: user.ID, CreatedAt: now},
			[]domain.Membership{{UserID: user.ID, Role: domain.RoleOwner, JoinedAt: now}})
		if err != nil {
			return fmt.Errorf("saved messages of user %d: %w", user.ID, err)
		}
	}
	if hasBot {
		return nil
	}
	botChat, err := s.chats.CreateChat(domain.Chat{Type: domain.ChatBot, Name: builtinBotName, CreatedBy: user.ID, CreatedAt: now},
		[]domain.Membership{
			{UserID: user.ID, Role: domain.RoleMember, JoinedAt: now},
			{UserID: botUserID, Role: domain.RoleMember, JoinedAt: now},
		})
	if err != nil {
		return fmt.Errorf("bot chat of user %d: %w", user.ID, err)
	}
	_, err = s.directory.CreateMessage(domain.CreateMessageCommand{
		ChatID:   botChat.ID,
		SenderID: botUserID,
		Content:  botfather.Greeting,
		Type:     domain.MessageText,
	})
	if err != nil {
		s.log.Warn("Greeting not posted", "user_id", user.ID, "chat_id", botChat.ID, "error", err)
	}
	return nil
}

func (s *AccountService) defaultChats(userID, botUserID domain.UserID) (hasSelf, hasBot bool, err error) {
	chats, err := s.chats.ListUserChats(userID)
	if err != nil {
		return false, false, err
	}
	for _, chat := range chats {
		switch chat.Type {
		case domain.ChatSelf:
			hasSelf = true
		case domain.ChatBot:
			_, err = s.chats.GetMembership(chat.ID, botUserID)
			if err == nil {
				hasBot = true
				continue
			}
			if !stderrors.Is(err, errors.ErrNotMember) {
				return false, false, err
			}
		}
	}
	return hasSelf, hasBot, nil
}

func (s *AccountService) builtinUser() (domain.UserID, error) {
	s.mu.Lock()
	id := s.botUserID
	s.mu.Unlock()
	if id != 0 {
		return id, nil
	}
	user, _, err := s.EnsureBuiltinBot()
	return user.ID, err
}

func (s *AccountService) GetUser(id domain.UserID) (domain.User, error) {
	return s.users.GetUser(id)
}

func (s *AccountService) UpdateProfile(id domain.UserID, update domain.ProfileUpdate) (domain.User, error) {
	if err := auth.Validate(update); err != nil {
		return domain.User{}, err
	}
	return s.users.UpdateProfile(id, update)
}

// UpdatePassword requires the current password when one is already set.
func (s *AccountService) UpdatePassword(cmd domain.UpdatePasswordCommand) error {
	if err := auth.Validate(cmd); err != nil {
		return err
	}
	hash, err := s.users.GetPasswordHash(cmd.UserID)
	if err != nil {
		return err
	}
	if hash != "" {
		match, err := auth.ComparePassword(cmd.CurrentPassword, hash)
		if err != nil {
			return err
		}
		if !match {
			return fmt.Errorf("%w: current password is incorrect", errors.ErrInvalidCredentials)
		}
	}
	newHash, err := auth.HashPassword(cmd.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(cmd.UserID, newHash)
}

func (s *AccountService) SetPresence(id domain.UserID, online bool) (domain.User, error) {
	return s.users.SetPresence(id, online, s.now())
}

// SearchUsers matches handles. Queries shorter than two characters return nothing.
func (s *AccountService) SearchUsers(query string) ([]domain.User, error) {
	query = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(query), "@"))
	if len([]rune(query)) < minSearchLength {
		return []domain.User{}, nil
	}
	return s.users.SearchByHandle(query, maxSearchHits)
}
