//go:generate go run go.uber.org/mock/mockgen -source=session_service.go -destination=../mocks/mock_session_service.go -package=mocks
package services

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/runtime"
	"context"
	"fmt"
	"log/slog"
)

// ISessionService routes the frames of one live connection.
type ISessionService interface {
	Authenticate(conn contract.Connection, userID domain.UserID, token string) error
	JoinChat(conn contract.Connection, chatID domain.ChatID) error
	SendMessage(ctx context.Context, conn contract.Connection, cmd domain.CreateMessageCommand) (domain.MessageWithSender, error)
	Typing(conn contract.Connection, chatID domain.ChatID) error
	Disconnect(conn contract.Connection)
}

// Presence is the part of the account service a session needs.
type Presence interface {
	GetUser(id domain.UserID) (domain.User, error)
	SetPresence(id domain.UserID, online bool) (domain.User, error)
}

type SessionService struct {
	registry     contract.IRegistry
	directory    contract.IChatDirectory
	poster       contract.IMessagePoster
	broadcaster  contract.IBroadcaster
	presence     Presence
	tokens       *auth.TokenIssuer
	requireToken bool
	userLocks    *runtime.KeyedMutex
	log          *slog.Logger
}

func NewSessionService(log *slog.Logger, registry contract.IRegistry, directory contract.IChatDirectory,
	poster contract.IMessagePoster, broadcaster contract.IBroadcaster, presence Presence,
	tokens *auth.TokenIssuer, requireToken bool) *SessionService {
	return &SessionService{
		registry:     registry,
		directory:    directory,
		poster:       poster,
		broadcaster:  broadcaster,
		presence:     presence,
		tokens:       tokens,
		requireToken: requireToken,
		userLocks:    runtime.NewKeyedMutex(),
		log:          log,
	}
}

// Authenticate binds conn to userID and marks the user online. A token, when
// given or required, must have been issued to that same user. The user's
// previous connection, if any, is closed.
func (s *SessionService) Authenticate(conn contract.Connection, userID domain.UserID, token string) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user id must be positive", errors.ErrValidation)
	}
	if token != "" || s.requireToken {
		claims, err := s.tokens.ValidateToken(token)
		if err != nil {
			return err
		}
		if claims.UserID != userID {
			return fmt.Errorf("%w: token issued to another user", errors.ErrInvalidCredentials)
		}
	}
	if _, err := s.presence.GetUser(userID); err != nil {
		return err
	}

	// Re-authentication as someone else ends the previous identity first
	if previous, _, ok := s.registry.Lookup(conn.ID()); ok && previous != userID {
		s.release(conn, previous)
	}

	// The registry change and the persisted presence move together per user
	unlock := s.userLocks.Lock(userKey(userID))
	defer unlock()
	if evicted := s.registry.Register(userID, conn); evicted != nil {
		s.log.Info("Replacing previous connection", "user_id", userID, "evicted", evicted.ID())
		if err := evicted.Close(); err != nil {
			s.log.Debug("Evicted connection close failed", "connection_id", evicted.ID(), "error", err)
		}
	}
	if _, err := s.presence.SetPresence(userID, true); err != nil {
		s.log.Warn("Presence not persisted", "user_id", userID, "online", true, "error", err)
	}
	s.log.Debug("Connection authenticated", "connection_id", conn.ID(), "user_id", userID)
	return nil
}

// JoinChat makes conn follow chatID. Only members may join.
func (s *SessionService) JoinChat(conn contract.Connection, chatID domain.ChatID) error {
	userID, err := s.member(conn, chatID)
	if err != nil {
		return err
	}
	if err = s.registry.Join(conn.ID(), chatID); err != nil {
		return err
	}
	s.log.Debug("Chat joined", "connection_id", conn.ID(), "user_id", userID, "chat_id", chatID)
	return nil
}

// SendMessage posts on behalf of the authenticated user, whatever SenderID cmd carries.
func (s *SessionService) SendMessage(ctx context.Context, conn contract.Connection, cmd domain.CreateMessageCommand) (domain.MessageWithSender, error) {
	userID, err := s.member(conn, cmd.ChatID)
	if err != nil {
		return domain.MessageWithSender{}, err
	}
	cmd.SenderID = userID
	return s.poster.PostMessage(ctx, cmd)
}

func (s *SessionService) Typing(conn contract.Connection, chatID domain.ChatID) error {
	userID, err := s.member(conn, chatID)
	if err != nil {
		return err
	}
	s.broadcaster.DeliverTyping(userID, chatID)
	return nil
}

// Disconnect releases the connection. Presence goes offline only if conn
// was still the user's current connection.
func (s *SessionService) Disconnect(conn contract.Connection) {
	userID, _, ok := s.registry.Lookup(conn.ID())
	if !ok {
		return
	}
	s.release(conn, userID)
}

func (s *SessionService) release(conn contract.Connection, userID domain.UserID) {
	unlock := s.userLocks.Lock(userKey(userID))
	defer unlock()
	_, wasCurrent := s.registry.Unregister(conn.ID())
	if !wasCurrent {
		return
	}
	if _, err := s.presence.SetPresence(userID, false); err != nil {
		s.log.Warn("Presence not persisted", "user_id", userID, "online", false, "error", err)
	}
	s.log.Debug("Connection released", "connection_id", conn.ID(), "user_id", userID)
}

func (s *SessionService) member(conn contract.Connection, chatID domain.ChatID) (domain.UserID, error) {
	userID, _, ok := s.registry.Lookup(conn.ID())
	if !ok {
		return 0, errors.ErrNotAuthenticated
	}
	if chatID <= 0 {
		return 0, fmt.Errorf("%w: chat id must be positive", errors.ErrValidation)
	}
	if _, err := s.directory.GetChat(chatID); err != nil {
		return 0, err
	}
	isMember, err := s.directory.IsMember(chatID, userID)
	if err != nil {
		return 0, err
	}
	if !isMember {
		return 0, fmt.Errorf("%w: chat %d", errors.ErrNotMember, chatID)
	}
	return userID, nil
}

func userKey(id domain.UserID) string {
	return fmt.Sprintf("user:%d", id)
}
