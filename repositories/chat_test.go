package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func Test_Private_Chat_Is_Created_Once_Per_Pair(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	repository := NewChatRepository(db, sequences, slog.Default())

	var wg sync.WaitGroup
	results := make([]domain.Chat, 10)
	created := make([]bool, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := domain.UserID(1), domain.UserID(2)
			if i%2 == 1 {
				a, b = b, a
			}
			chat, ok, err := repository.CreatePrivateChat(domain.Chat{Name: "dm", CreatedAt: time.Now()}, a, b)
			req.NoError(err)
			results[i], created[i] = chat, ok
		}(i)
	}
	wg.Wait()

	ids := lo.Uniq(lo.Map(results, func(c domain.Chat, _ int) domain.ChatID { return c.ID }))
	req.Len(ids, 1)
	req.Equal(1, lo.Count(created, true))

	members, err := repository.ListMembers(ids[0])
	req.NoError(err)
	req.Len(members, 2)

	found, err := repository.FindPrivateChat(2, 1)
	req.NoError(err)
	req.Equal(ids[0], found.ID)
}

func Test_Invite_Link_Is_Unique(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	repository := NewChatRepository(db, sequences, slog.Default())

	link := "https://t.me/+abc"
	owner := []domain.Membership{{UserID: 1, Role: domain.RoleOwner}}
	chat, err := repository.CreateChat(domain.Chat{Type: domain.ChatGroup, Name: "g1", InviteLink: &link, CreatedBy: 1}, owner)
	req.NoError(err)

	_, err = repository.CreateChat(domain.Chat{Type: domain.ChatGroup, Name: "g2", InviteLink: &link, CreatedBy: 1}, owner)
	req.ErrorIs(err, errors.ErrConflict)

	byInvite, err := repository.GetChatByInvite(link)
	req.NoError(err)
	req.Equal(chat.ID, byInvite.ID)
}

func Test_Add_Member_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	repository := NewChatRepository(db, sequences, slog.Default())

	chat, err := repository.CreateChat(domain.Chat{Type: domain.ChatGroup, Name: "g", CreatedBy: 1},
		[]domain.Membership{{UserID: 1, Role: domain.RoleOwner}})
	req.NoError(err)

	_, added, err := repository.AddMember(domain.Membership{ChatID: chat.ID, UserID: 2, Role: domain.RoleMember})
	req.NoError(err)
	req.True(added)
	_, added, err = repository.AddMember(domain.Membership{ChatID: chat.ID, UserID: 2, Role: domain.RoleAdmin})
	req.NoError(err)
	req.False(added)

	membership, err := repository.GetMembership(chat.ID, 2)
	req.NoError(err)
	req.Equal(domain.RoleMember, membership.Role)

	_, err = repository.GetMembership(chat.ID, 3)
	req.ErrorIs(err, errors.ErrNotMember)

	chats, err := repository.ListUserChats(2)
	req.NoError(err)
	req.Len(chats, 1)
	req.Equal(chat.ID, chats[0].ID)
}

func Test_Add_Member_To_Unknown_Chat(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	repository := NewChatRepository(db, sequences, slog.Default())

	_, _, err := repository.AddMember(domain.Membership{ChatID: 99, UserID: 2, Role: domain.RoleMember})
	req.ErrorIs(err, errors.ErrChatNotFound)
}

func Test_Create_Bot_Writes_Bot_Chat_And_Owner(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	bots := NewBotRepository(db, sequences, slog.Default())
	chats := NewChatRepository(db, sequences, slog.Default())

	bot, chat, err := bots.CreateBot(
		domain.Bot{Name: "MyBot", Username: "cool_bot", CreatedBy: 5, IsActive: true},
		domain.Chat{Name: "MyBot", CreatedBy: 5},
	)
	req.NoError(err)
	req.NotEmpty(bot.Token)
	req.Equal(domain.ChatBot, chat.Type)

	membership, err := chats.GetMembership(chat.ID, 5)
	req.NoError(err)
	req.Equal(domain.RoleOwner, membership.Role)

	// Handles are compared case-insensitively
	_, _, err = bots.CreateBot(domain.Bot{Name: "Other", Username: "Cool_Bot", CreatedBy: 6}, domain.Chat{Name: "Other", CreatedBy: 6})
	req.ErrorIs(err, errors.ErrHandleTaken)

	owned, err := bots.ListUserBots(5)
	req.NoError(err)
	req.Len(owned, 1)
	req.Equal("cool_bot", owned[0].Username)

	none, err := bots.ListUserBots(6)
	req.NoError(err)
	req.Empty(none)
}

func Test_Ensure_Bot_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	bots := NewBotRepository(db, sequences, slog.Default())

	first, err := bots.EnsureBot(domain.Bot{Name: "BotFather", Username: "botfather", CreatedBy: 1, IsActive: true})
	req.NoError(err)
	second, err := bots.EnsureBot(domain.Bot{Name: "BotFather", Username: "botfather", CreatedBy: 1, IsActive: true})
	req.NoError(err)
	req.Equal(first.ID, second.ID)
	req.Equal(first.Token, second.Token)
}
