package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/repositories"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

const testInviteBaseURL = "https://t.me/+"

type fixture struct {
	users     *repositories.UserRepository
	chats     *repositories.ChatRepository
	messages  *repositories.MessageRepository
	bots      *repositories.BotRepository
	directory *DirectoryService
	accounts  *AccountService
	tokens    *auth.TokenIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	sequences, err := repositories.NewSequences(db)
	req.NoError(err)
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	req.NoError(err)
	t.Cleanup(func() {
		_ = writer.Close()
		_ = sequences.Release()
		_ = db.Close()
	})

	f := &fixture{
		users:    repositories.NewUserRepository(db, sequences, repositories.NewUserIndex(writer), log),
		chats:    repositories.NewChatRepository(db, sequences, log),
		messages: repositories.NewMessageRepository(db, sequences, log),
		bots:     repositories.NewBotRepository(db, sequences, log),
		tokens:   auth.NewTokenIssuer("test-secret", time.Hour),
	}
	f.directory = NewDirectoryService(log, f.users, f.chats, f.messages, f.bots, testInviteBaseURL)
	f.accounts = NewAccountService(log, f.users, f.chats, f.bots, f.directory, f.tokens, "22222")
	return f
}

func (f *fixture) user(t *testing.T, phone, firstName string) domain.User {
	t.Helper()
	user, err := f.users.CreateUser(repositories.NewUser{Phone: phone, FirstName: firstName, LastName: lo.ToPtr("Test"), CreatedAt: time.Now()})
	require.NoError(t, err)
	return user
}

func (f *fixture) group(t *testing.T, owner domain.UserID, members ...domain.UserID) domain.Chat {
	t.Helper()
	req := require.New(t)
	chat, err := f.directory.CreateChat(domain.CreateChatCommand{Type: domain.ChatGroup, Name: "group", CreatedBy: owner})
	req.NoError(err)
	for _, member := range members {
		_, _, err = f.chats.AddMember(domain.Membership{ChatID: chat.ID, UserID: member, Role: domain.RoleMember, JoinedAt: time.Now()})
		req.NoError(err)
	}
	return chat
}
