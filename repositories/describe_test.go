package repositories

import (
	"chat-relay/domain"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func Test_Describe_Stored_Entries(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	chats := NewChatRepository(db, sequences, slog.Default())

	chat, err := chats.CreateChat(domain.Chat{Type: domain.ChatGroup, Name: "Team", CreatedBy: 1},
		[]domain.Membership{{UserID: 1, Role: domain.RoleOwner}})
	req.NoError(err)

	records := map[string]Record{}
	req.NoError(db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, nil, func(key, val []byte) error {
			records[string(key)] = Describe(string(key), val)
			return nil
		})
	}))

	stored := records[string(chatKey(chat.ID))]
	req.Equal("chat", stored.Kind)
	req.Equal("[group] Team", stored.Detail)

	member := records[string(memberKey(chat.ID, 1))]
	req.Equal("member", member.Kind)
	req.Equal("owner", member.Detail)

	kinds := lo.Uniq(lo.Map(lo.Values(records), func(r Record, _ int) string { return r.Kind }))
	req.Contains(kinds, "index")
}

func Test_Describe_Garbage(t *testing.T) {
	req := require.New(t)

	record := Describe("user:0000000000000000001", []byte("{broken"))

	req.Equal("raw", record.Kind)
	req.Equal("7 bytes", record.Detail)
}
