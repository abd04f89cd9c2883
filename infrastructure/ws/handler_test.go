package ws

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// outbound reads any server frame, message is a string in error frames.
type outbound struct {
	Type    string          `json:"type"`
	Code    string          `json:"code"`
	Message json.RawMessage `json:"message"`
	ChatID  domain.ChatID   `json:"chatId"`
	UserID  domain.UserID   `json:"userId"`
}

func dial(t *testing.T, sessions *mocks.MockISessionService) *websocket.Conn {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	server := httptest.NewServer(NewHandler(log, sessions, 16, nil))
	t.Cleanup(server.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func read(t *testing.T, client *websocket.Conn) outbound {
	t.Helper()
	req := require.New(t)
	req.NoError(client.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var frame outbound
	req.NoError(client.ReadJSON(&frame))
	return frame
}

func TestHandler_Auth_Then_Rejected_Join(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockISessionService(ctrl)
	closed := make(chan struct{})

	sessions.EXPECT().Authenticate(gomock.Any(), domain.UserID(7), "tok").Return(nil)
	sessions.EXPECT().JoinChat(gomock.Any(), domain.ChatID(3)).Return(errors.ErrNotMember)
	sessions.EXPECT().Disconnect(gomock.Any()).Do(func(contract.Connection) { close(closed) })

	client := dial(t, sessions)
	req.NoError(client.WriteJSON(map[string]any{"type": "auth", "userId": 7, "token": "tok"}))
	req.NoError(client.WriteJSON(map[string]any{"type": "join_chat", "chatId": 3}))

	frame := read(t, client)
	req.Equal("error", frame.Type)
	req.Equal(errors.CodeNotMember, frame.Code)

	req.NoError(client.Close())
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		req.Fail("disconnect not reported")
	}
}

func TestHandler_Malformed_Frames_Are_Dropped(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockISessionService(ctrl)
	typed := make(chan struct{})

	sessions.EXPECT().Typing(gomock.Any(), domain.ChatID(3)).DoAndReturn(func(contract.Connection, domain.ChatID) error {
		close(typed)
		return nil
	})
	sessions.EXPECT().Disconnect(gomock.Any()).AnyTimes()

	client := dial(t, sessions)
	req.NoError(client.WriteMessage(websocket.TextMessage, []byte("{not json")))
	req.NoError(client.WriteJSON(map[string]any{"type": "dance"}))
	req.NoError(client.WriteJSON(map[string]any{"type": "typing", "chatId": 3}))

	select {
	case <-typed:
	case <-time.After(2 * time.Second):
		req.Fail("typing frame not dispatched")
	}
}

func TestHandler_Send_Message_Frame(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockISessionService(ctrl)
	sent := make(chan domain.CreateMessageCommand, 1)

	sessions.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ contract.Connection, cmd domain.CreateMessageCommand) (domain.MessageWithSender, error) {
			sent <- cmd
			return domain.MessageWithSender{}, nil
		})
	sessions.EXPECT().Disconnect(gomock.Any()).AnyTimes()

	client := dial(t, sessions)
	req.NoError(client.WriteJSON(map[string]any{
		"type": "send_message", "chatId": 3, "content": "hi", "messageType": "image",
		"metadata": map[string]any{"url": "x"}, "replyToId": 9,
	}))

	select {
	case cmd := <-sent:
		req.Equal(domain.ChatID(3), cmd.ChatID)
		req.Equal("hi", cmd.Content)
		req.Equal(domain.MessageImage, cmd.Type)
		req.JSONEq(`{"url":"x"}`, string(cmd.Metadata))
		req.Equal(domain.MessageID(9), *cmd.ReplyToID)
	case <-time.After(2 * time.Second):
		req.Fail("send_message frame not dispatched")
	}
}

func TestHandler_CloseAll_Releases_Sessions(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockISessionService(ctrl)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	handler := NewHandler(log, sessions, 16, nil)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	// Given an authenticated client
	authenticated := make(chan struct{})
	var released atomic.Int32
	sessions.EXPECT().Authenticate(gomock.Any(), domain.UserID(7), "").
		DoAndReturn(func(contract.Connection, domain.UserID, string) error {
			close(authenticated)
			return nil
		})
	sessions.EXPECT().Disconnect(gomock.Any()).Do(func(contract.Connection) { released.Add(1) }).Times(1)

	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	t.Cleanup(func() { _ = client.Close() })
	req.NoError(client.WriteJSON(map[string]any{"type": "auth", "userId": 7}))
	<-authenticated
	req.Equal(1, handler.Live())

	// When the relay shuts down
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req.NoError(handler.CloseAll(ctx))

	// Then the session was released before CloseAll returned
	req.Equal(int32(1), released.Load())
	req.Zero(handler.Live())
	req.NoError(client.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err = client.ReadMessage()
	req.True(websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected read error: %v", err)

	// And a client arriving late is turned away
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	t.Cleanup(func() { _ = late.Close() })
	req.NoError(late.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err = late.ReadMessage()
	req.Error(err)
	req.Zero(handler.Live())
}

func TestConnection_Consume_Writes_Frames(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockISessionService(ctrl)
	connections := make(chan contract.Connection, 1)

	sessions.EXPECT().Authenticate(gomock.Any(), domain.UserID(7), "").
		DoAndReturn(func(conn contract.Connection, _ domain.UserID, _ string) error {
			connections <- conn
			return nil
		})
	sessions.EXPECT().Disconnect(gomock.Any()).AnyTimes()

	client := dial(t, sessions)
	req.NoError(client.WriteJSON(map[string]any{"type": "auth", "userId": 7}))
	conn := <-connections

	message := domain.MessageWithSender{
		Message: domain.Message{ID: 1, ChatID: 3, SenderID: 8, Content: "hello", Type: domain.MessageText},
		Sender:  domain.User{ID: 8, FirstName: "Bob"},
	}
	req.NoError(conn.Consume(context.Background(), event.MessagePosted{Message: message}))
	req.NoError(conn.Consume(context.Background(), event.UserTyping{UserID: 8, Chat: 3}))

	frame := read(t, client)
	req.Equal("new_message", frame.Type)
	req.Equal(domain.ChatID(3), frame.ChatID)
	var posted domain.MessageWithSender
	req.NoError(json.Unmarshal(frame.Message, &posted))
	req.Equal("hello", posted.Content)
	req.Equal("Bob", posted.Sender.FirstName)

	frame = read(t, client)
	req.Equal("typing", frame.Type)
	req.Equal(domain.UserID(8), frame.UserID)

	// A closed connection refuses events instead of blocking
	req.NoError(conn.Close())
	err := conn.Consume(context.Background(), event.UserTyping{UserID: 8, Chat: 3})
	req.ErrorIs(err, ErrConnectionClosed)
}

func TestEncodeError_Hides_Internal_Details(t *testing.T) {
	req := require.New(t)
	var frame errorFrame
	req.NoError(json.Unmarshal(encodeError(context.DeadlineExceeded), &frame))
	req.Equal(errors.CodeInternal, frame.Code)
	req.Equal("internal error", frame.Message)
}
