//go:generate go run go.uber.org/mock/mockgen -source=directory_service.go -destination=../mocks/mock_directory_service.go -package=mocks
package services

import (
	"bytes"
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const (
	inviteAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	inviteLength       = 22
	inviteAttempts     = 3
	DefaultMessagePage = 50
	MaxMessagePage     = 200
)

// IDirectoryService is the chat directory as consumed by the HTTP facade.
type IDirectoryService interface {
	GetChat(id domain.ChatID) (domain.Chat, error)
	IsMember(chatID domain.ChatID, userID domain.UserID) (bool, error)
	CreateChat(cmd domain.CreateChatCommand) (domain.Chat, error)
	CreatePrivateChatIfAbsent(a, b domain.UserID) (domain.Chat, error)
	CreateMessage(cmd domain.CreateMessageCommand) (domain.MessageWithSender, error)
	EditMessage(cmd domain.EditMessageCommand) (domain.MessageWithSender, error)
	ListUserChats(userID domain.UserID) ([]domain.ChatWithMembers, error)
	ListMessages(chatID domain.ChatID, limit int) ([]domain.MessageWithSender, error)
	JoinByInvite(link string, userID domain.UserID) (domain.Chat, error)
	CreateBot(cmd domain.CreateBotCommand) (domain.Bot, domain.Chat, error)
	ListUserBots(userID domain.UserID) ([]domain.Bot, error)
}

// Censor masks forbidden words. The moderation package provides one.
type Censor interface {
	Censor(content string) (string, []string)
}

type DirectoryService struct {
	users         repositories.IUserRepository
	chats         repositories.IChatRepository
	messages      repositories.IMessageRepository
	bots          repositories.IBotRepository
	censor        Censor
	pairLocks     *runtime.KeyedMutex
	inviteBaseURL string
	now           func() time.Time
	log           *slog.Logger
}

func NewDirectoryService(log *slog.Logger, users repositories.IUserRepository, chats repositories.IChatRepository,
	messages repositories.IMessageRepository, bots repositories.IBotRepository, inviteBaseURL string) *DirectoryService {
	return &DirectoryService{
		users:         users,
		chats:         chats,
		messages:      messages,
		bots:          bots,
		pairLocks:     runtime.NewKeyedMutex(),
		inviteBaseURL: inviteBaseURL,
		now:           func() time.Time { return time.Now().UTC() },
		log:           log,
	}
}

// WithCensor enables moderation of message content.
func (s *DirectoryService) WithCensor(censor Censor) *DirectoryService {
	s.censor = censor
	return s
}

func (s *DirectoryService) GetChat(id domain.ChatID) (domain.Chat, error) {
	return s.chats.GetChat(id)
}

func (s *DirectoryService) IsMember(chatID domain.ChatID, userID domain.UserID) (bool, error) {
	_, err := s.chats.GetMembership(chatID, userID)
	if stderrors.Is(err, errors.ErrNotMember) {
		return false, nil
	}
	return err == nil, err
}

// CreateChat creates a group, channel or self chat with its creator as owner.
// Private chats go through CreatePrivateChatIfAbsent and bot chats through CreateBot.
func (s *DirectoryService) CreateChat(cmd domain.CreateChatCommand) (domain.Chat, error) {
	if err := auth.Validate(cmd); err != nil {
		return domain.Chat{}, err
	}
	if cmd.Type == domain.ChatPrivate || cmd.Type == domain.ChatBot {
		return domain.Chat{}, fmt.Errorf("%w: %s chats are not created directly", errors.ErrValidation, cmd.Type)
	}
	if _, err := s.users.GetUser(cmd.CreatedBy); err != nil {
		return domain.Chat{}, err
	}

	now := s.now()
	chat := domain.Chat{
		Type:        cmd.Type,
		Name:        cmd.Name,
		Description: cmd.Description,
		Avatar:      cmd.Avatar,
		IsPublic:    cmd.IsPublic,
		CreatedBy:   cmd.CreatedBy,
		CreatedAt:   now,
	}
	owner := []domain.Membership{{UserID: cmd.CreatedBy, Role: domain.RoleOwner, JoinedAt: now}}

	var err error
	for attempt := 0; attempt < inviteAttempts; attempt++ {
		if cmd.Type.HasInviteLink() {
			link, err := s.newInviteLink()
			if err != nil {
				return domain.Chat{}, err
			}
			chat.InviteLink = &link
		}
		var created domain.Chat
		created, err = s.chats.CreateChat(chat, owner)
		if err == nil {
			s.log.Debug("Chat created", "chat_id", created.ID, "type", created.Type, "created_by", created.CreatedBy)
			return created, nil
		}
		if !chat.Type.HasInviteLink() || !isConflict(err) {
			break
		}
		s.log.Warn("Invite link collision, drawing a new one", "attempt", attempt+1)
	}
	return domain.Chat{}, conflict(err)
}

// CreatePrivateChatIfAbsent returns the private chat of the pair, creating it
// on first use. The chat is named after the peer b.
func (s *DirectoryService) CreatePrivateChatIfAbsent(a, b domain.UserID) (domain.Chat, error) {
	if a == b {
		return domain.Chat{}, fmt.Errorf("%w: a private chat needs two distinct users", errors.ErrValidation)
	}
	if _, err := s.users.GetUser(a); err != nil {
		return domain.Chat{}, err
	}
	peer, err := s.users.GetUser(b)
	if err != nil {
		return domain.Chat{}, err
	}

	low, high := min(a, b), max(a, b)
	unlock := s.pairLocks.Lock(fmt.Sprintf("pair:%d:%d", low, high))
	defer unlock()

	existing, err := s.chats.FindPrivateChat(a, b)
	if err == nil {
		return existing, nil
	}
	if !stderrors.Is(err, errors.ErrChatNotFound) {
		return domain.Chat{}, err
	}
	chat, created, err := s.chats.CreatePrivateChat(domain.Chat{
		Type:      domain.ChatPrivate,
		Name:      peer.DisplayName(),
		CreatedBy: a,
		CreatedAt: s.now(),
	}, a, b)
	if err != nil {
		return domain.Chat{}, conflict(err)
	}
	if created {
		s.log.Debug("Private chat created", "chat_id", chat.ID, "user_a", a, "user_b", b)
	}
	return chat, nil
}

// CreateMessage checks the chat, the sender membership and the replied
// message before storing. The stored message is returned with its sender.
func (s *DirectoryService) CreateMessage(cmd domain.CreateMessageCommand) (domain.MessageWithSender, error) {
	if err := auth.Validate(cmd); err != nil {
		return domain.MessageWithSender{}, err
	}
	if err := validateMetadata(cmd.Metadata); err != nil {
		return domain.MessageWithSender{}, err
	}
	sender, err := s.users.GetUser(cmd.SenderID)
	if err != nil {
		return domain.MessageWithSender{}, err
	}
	if _, err = s.chats.GetChat(cmd.ChatID); err != nil {
		return domain.MessageWithSender{}, err
	}
	if _, err = s.chats.GetMembership(cmd.ChatID, cmd.SenderID); err != nil {
		return domain.MessageWithSender{}, err
	}
	if cmd.ReplyToID != nil {
		replied, err := s.messages.GetMessage(*cmd.ReplyToID)
		if err != nil {
			return domain.MessageWithSender{}, err
		}
		if replied.ChatID != cmd.ChatID {
			return domain.MessageWithSender{}, fmt.Errorf("%w: reply to message %d of another chat", errors.ErrValidation, replied.ID)
		}
	}

	stored, err := s.messages.StoreMessage(domain.Message{
		ChatID:    cmd.ChatID,
		SenderID:  cmd.SenderID,
		Content:   s.moderate(cmd.ChatID, cmd.Content),
		Type:      cmd.Type,
		Metadata:  cmd.Metadata,
		ReplyToID: cmd.ReplyToID,
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.MessageWithSender{}, conflict(err)
	}
	return domain.MessageWithSender{Message: stored, Sender: sender}, nil
}

// EditMessage replaces the content of a message. Only its sender may edit it.
func (s *DirectoryService) EditMessage(cmd domain.EditMessageCommand) (domain.MessageWithSender, error) {
	if err := auth.Validate(cmd); err != nil {
		return domain.MessageWithSender{}, err
	}
	message, err := s.messages.GetMessage(cmd.MessageID)
	if err != nil {
		return domain.MessageWithSender{}, err
	}
	if message.SenderID != cmd.EditorID {
		return domain.MessageWithSender{}, fmt.Errorf("%w: message %d belongs to another user", errors.ErrForbidden, cmd.MessageID)
	}
	sender, err := s.users.GetUser(message.SenderID)
	if err != nil {
		return domain.MessageWithSender{}, err
	}
	updated, err := s.messages.UpdateMessage(cmd.MessageID, s.moderate(message.ChatID, cmd.Content), s.now())
	if err != nil {
		return domain.MessageWithSender{}, conflict(err)
	}
	return domain.MessageWithSender{Message: updated, Sender: sender}, nil
}

// ListUserChats returns the chats of the user, most recently created first,
// each with its members and last message.
func (s *DirectoryService) ListUserChats(userID domain.UserID) ([]domain.ChatWithMembers, error) {
	if _, err := s.users.GetUser(userID); err != nil {
		return nil, err
	}
	chats, err := s.chats.ListUserChats(userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(chats, func(i, j int) bool {
		if !chats[i].CreatedAt.Equal(chats[j].CreatedAt) {
			return chats[i].CreatedAt.After(chats[j].CreatedAt)
		}
		return chats[i].ID > chats[j].ID
	})

	result := make([]domain.ChatWithMembers, 0, len(chats))
	for _, chat := range chats {
		members, err := s.chats.ListMembers(chat.ID)
		if err != nil {
			return nil, err
		}
		last, err := s.messages.GetLastMessage(chat.ID)
		if err != nil {
			return nil, err
		}

		ids := lo.Map(members, func(m domain.Membership, _ int) domain.UserID { return m.UserID })
		if last != nil {
			ids = append(ids, last.SenderID)
		}
		users, err := s.users.GetUsers(ids)
		if err != nil {
			return nil, err
		}

		entry := domain.ChatWithMembers{
			Chat: chat,
			Members: lo.FilterMap(members, func(m domain.Membership, _ int) (domain.MemberWithUser, bool) {
				user, ok := users[m.UserID]
				return domain.MemberWithUser{Membership: m, User: user}, ok
			}),
		}
		if last != nil {
			entry.LastMessage = &domain.MessageWithSender{Message: *last, Sender: users[last.SenderID]}
		}
		result = append(result, entry)
	}
	return result, nil
}

// ListMessages returns the limit most recent messages of the chat in
// ascending order. A limit below 1 falls back to DefaultMessagePage.
func (s *DirectoryService) ListMessages(chatID domain.ChatID, limit int) ([]domain.MessageWithSender, error) {
	if limit < 1 {
		limit = DefaultMessagePage
	}
	limit = min(limit, MaxMessagePage)
	if _, err := s.chats.GetChat(chatID); err != nil {
		return nil, err
	}
	messages, err := s.messages.GetMessages(chatID, limit)
	if err != nil {
		return nil, err
	}
	senders, err := s.users.GetUsers(lo.Map(messages, func(m domain.Message, _ int) domain.UserID { return m.SenderID }))
	if err != nil {
		return nil, err
	}
	return lo.Map(messages, func(m domain.Message, _ int) domain.MessageWithSender {
		return domain.MessageWithSender{Message: m, Sender: senders[m.SenderID]}
	}), nil
}

// JoinByInvite adds the user as member of the chat behind link.
// Joining a chat the user already belongs to keeps the existing role.
func (s *DirectoryService) JoinByInvite(link string, userID domain.UserID) (domain.Chat, error) {
	if _, err := s.users.GetUser(userID); err != nil {
		return domain.Chat{}, err
	}
	chat, err := s.chats.GetChatByInvite(link)
	if err != nil {
		return domain.Chat{}, err
	}
	_, added, err := s.chats.AddMember(domain.Membership{
		ChatID:   chat.ID,
		UserID:   userID,
		Role:     domain.RoleMember,
		JoinedAt: s.now(),
	})
	if err != nil {
		return domain.Chat{}, conflict(err)
	}
	if added {
		s.log.Debug("User joined by invite", "chat_id", chat.ID, "user_id", userID)
	}
	return chat, nil
}

// CreateBot stores the bot, its chat and the owner membership atomically.
func (s *DirectoryService) CreateBot(cmd domain.CreateBotCommand) (domain.Bot, domain.Chat, error) {
	if err := auth.Validate(cmd); err != nil {
		return domain.Bot{}, domain.Chat{}, err
	}
	if _, err := s.users.GetUser(cmd.CreatedBy); err != nil {
		return domain.Bot{}, domain.Chat{}, err
	}
	now := s.now()
	bot, chat, err := s.bots.CreateBot(
		domain.Bot{
			Name:        cmd.Name,
			Username:    cmd.Username,
			Description: cmd.Description,
			CreatedBy:   cmd.CreatedBy,
			IsActive:    true,
			CreatedAt:   now,
		},
		domain.Chat{
			Name:        cmd.Name,
			Description: cmd.Description,
			CreatedBy:   cmd.CreatedBy,
			CreatedAt:   now,
		},
	)
	if err != nil {
		return domain.Bot{}, domain.Chat{}, conflict(err)
	}
	return bot, chat, nil
}

func (s *DirectoryService) ListUserBots(userID domain.UserID) ([]domain.Bot, error) {
	return s.bots.ListUserBots(userID)
}

func (s *DirectoryService) moderate(chatID domain.ChatID, content string) string {
	if s.censor == nil {
		return content
	}
	censored, words := s.censor.Censor(content)
	if len(words) > 0 {
		s.log.Info("Message content censored", "chat_id", chatID, "words", len(words))
	}
	return censored
}

// newInviteLink draws inviteLength characters of inviteAlphabet.
// The alphabet has 64 symbols so masking a random byte keeps the draw uniform.
func (s *DirectoryService) newInviteLink() (string, error) {
	buf := make([]byte, inviteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("invite link: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[b&63]
	}
	return s.inviteBaseURL + string(buf), nil
}

func validateMetadata(metadata []byte) error {
	trimmed := bytes.TrimSpace(metadata)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return fmt.Errorf("%w: metadata must be a JSON object", errors.ErrValidation)
	}
	return nil
}

func isConflict(err error) bool {
	return stderrors.Is(err, errors.ErrConflict) || stderrors.Is(err, badger.ErrConflict)
}

// conflict maps a transaction conflict to ErrConflict.
func conflict(err error) error {
	if err != nil && stderrors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %v", errors.ErrConflict, err)
	}
	return err
}
