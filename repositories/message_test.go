package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) (*badger.DB, *Sequences) {
	t.Helper()
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	sequences, err := NewSequences(db)
	req.NoError(err)
	t.Cleanup(func() {
		_ = sequences.Release()
		_ = db.Close()
	})
	return db, sequences
}

func Test_Record_Multiple_Message(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	repository := NewMessageRepository(db, sequences, slog.Default())

	chatID := domain.ChatID(1)
	content := "this message will self destruct in 5 seconds"
	at := time.Now().UTC()
	for i, sender := range []domain.UserID{1, 2, 3} {
		_, err := repository.StoreMessage(domain.Message{
			ChatID:    chatID,
			SenderID:  sender,
			Content:   content,
			CreatedAt: at.Add(time.Duration(i) * time.Minute),
		})
		req.NoError(err)
	}

	fetched, err := repository.GetMessages(chatID, 0)
	req.NoError(err)
	req.Len(fetched, 3)
	req.Equal([]domain.UserID{1, 2, 3}, lo.Map(fetched, func(m domain.Message, _ int) domain.UserID { return m.SenderID }))
	req.Equal(domain.MessageText, fetched[0].Type)
}

func Test_Record_Multiple_Message_And_Limit_Keeps_Most_Recent(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	repository := NewMessageRepository(db, sequences, slog.Default())

	chatID := domain.ChatID(1)
	at := time.Now().UTC()
	for i, content := range []string{"first", "second", "third"} {
		_, err := repository.StoreMessage(domain.Message{
			ChatID:    chatID,
			SenderID:  1,
			Content:   content,
			CreatedAt: at.Add(time.Duration(i) * time.Second),
		})
		req.NoError(err)
	}

	fetched, err := repository.GetMessages(chatID, 2)
	req.NoError(err)
	req.Equal([]string{"second", "third"}, lo.Map(fetched, func(m domain.Message, _ int) string { return m.Content }))
}

func Test_Store_Message_Never_Goes_Back_In_Time(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	repository := NewMessageRepository(db, sequences, slog.Default())

	// Given a message stored with a clock ahead of the next writer
	chatID := domain.ChatID(7)
	at := time.Now().UTC()
	first, err := repository.StoreMessage(domain.Message{ChatID: chatID, SenderID: 1, Content: "late clock", CreatedAt: at})
	req.NoError(err)

	// When a second message arrives stamped earlier
	second, err := repository.StoreMessage(domain.Message{ChatID: chatID, SenderID: 2, Content: "early clock", CreatedAt: at.Add(-time.Hour)})
	req.NoError(err)

	// Then it is clamped and listed after the first one
	req.Equal(first.CreatedAt, second.CreatedAt)
	fetched, err := repository.GetMessages(chatID, 10)
	req.NoError(err)
	req.Equal([]domain.MessageID{first.ID, second.ID}, lo.Map(fetched, func(m domain.Message, _ int) domain.MessageID { return m.ID }))
}

func Test_Concurrent_Messages_Are_Listed_In_Creation_Order(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	repository := NewMessageRepository(db, sequences, slog.Default())

	chats := []domain.ChatID{1, 2}
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repository.StoreMessage(domain.Message{
				ChatID:    chats[i%2],
				SenderID:  domain.UserID(i + 1),
				Content:   "hello",
				CreatedAt: time.Now().UTC(),
			})
			req.NoError(err)
		}(i)
	}
	wg.Wait()

	for _, chatID := range chats {
		fetched, err := repository.GetMessages(chatID, 0)
		req.NoError(err)
		req.Len(fetched, 20)
		for i := 1; i < len(fetched); i++ {
			req.False(fetched[i].CreatedAt.Before(fetched[i-1].CreatedAt))
		}
	}
}

func Test_Update_Message_Marks_It_Edited(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	repository := NewMessageRepository(db, sequences, slog.Default())

	at := time.Now().UTC()
	stored, err := repository.StoreMessage(domain.Message{ChatID: 1, SenderID: 1, Content: "typo", CreatedAt: at})
	req.NoError(err)

	updated, err := repository.UpdateMessage(stored.ID, "fixed", at.Add(time.Minute))
	req.NoError(err)
	req.True(updated.IsEdited)
	req.Equal("fixed", updated.Content)
	req.Equal(stored.CreatedAt, updated.CreatedAt)

	last, err := repository.GetLastMessage(1)
	req.NoError(err)
	req.NotNil(last)
	req.Equal("fixed", last.Content)
}

func Test_Missing_Message(t *testing.T) {
	req := require.New(t)
	db, sequences := openTestDB(t)
	repository := NewMessageRepository(db, sequences, slog.Default())

	_, err := repository.GetMessage(42)
	req.ErrorIs(err, errors.ErrMessageNotFound)
	req.ErrorIs(err, errors.ErrNotFound)

	last, err := repository.GetLastMessage(42)
	req.NoError(err)
	req.Nil(last)
}
