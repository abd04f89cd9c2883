package rest

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	accounts  *mocks.MockIAccountService
	directory *mocks.MockIDirectoryService
	tokens    *auth.TokenIssuer
	router    http.Handler
}

func newFixture(t *testing.T, requireToken bool) fixture {
	ctrl := gomock.NewController(t)
	f := fixture{
		accounts:  mocks.NewMockIAccountService(ctrl),
		directory: mocks.NewMockIDirectoryService(ctrl),
		tokens:    auth.NewTokenIssuer("secret", time.Hour),
	}
	api := NewAPI(logs.GetLoggerFromLevel(slog.LevelDebug), f.accounts, f.directory)
	f.router = NewRouter(api, f.tokens, requireToken, nil)
	return f
}

func (f fixture) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &v))
	return v
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		status           int
		code             string
		requiresPassword bool
	}{
		{"should reject a wrong code", errors.ErrInvalidCode, http.StatusBadRequest, errors.CodeInvalidCode, false},
		{"should ask for the password", errors.ErrPasswordRequired, http.StatusUnauthorized, errors.CodePasswordRequired, true},
		{"should reject a wrong password", errors.ErrInvalidCredentials, http.StatusUnauthorized, errors.CodeInvalidCredentials, false},
		{"should reject a malformed phone", fmt.Errorf("%w: phone", errors.ErrValidation), http.StatusBadRequest, errors.CodeValidation, false},
		{"should hide internal failures", fmt.Errorf("disk on fire"), http.StatusInternalServerError, errors.CodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			f := newFixture(t, true)
			f.accounts.EXPECT().Verify(domain.VerifyCommand{Phone: "+15550001", Code: "11111"}).Return(domain.VerifyResult{}, tt.err)

			recorder := f.do(t, http.MethodPost, "/api/auth/verify", `{"phone":"+15550001","code":"11111"}`, "")

			req.Equal(tt.status, recorder.Code)
			body := decodeBody[errorBody](t, recorder)
			req.Equal(tt.code, body.Code)
			req.Equal(tt.requiresPassword, body.RequiresPassword)
			if tt.code == errors.CodeInternal {
				req.Equal("internal error", body.Message)
			}
		})
	}

	t.Run("should return the user and a token without requiring one", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, true)
		f.accounts.EXPECT().Verify(gomock.Any()).Return(domain.VerifyResult{
			User: domain.User{ID: 7, FirstName: "User"}, Token: "jwt", Created: true,
		}, nil)

		recorder := f.do(t, http.MethodPost, "/api/auth/verify", `{"phone":"+15550001","code":"22222"}`, "")

		req.Equal(http.StatusOK, recorder.Code)
		result := decodeBody[domain.VerifyResult](t, recorder)
		req.Equal(domain.UserID(7), result.User.ID)
		req.Equal("jwt", result.Token)
		req.True(result.Created)
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, false)

		recorder := f.do(t, http.MethodPost, "/api/auth/verify", `{"phone":`, "")

		req.Equal(http.StatusBadRequest, recorder.Code)
	})
}

func TestListChats(t *testing.T) {
	t.Run("should use the token identity", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, true)
		token, err := f.tokens.GenerateToken(7)
		req.NoError(err)
		f.directory.EXPECT().ListUserChats(domain.UserID(7)).Return([]domain.ChatWithMembers{
			{Chat: domain.Chat{ID: 3, Name: "Saved Messages"}},
		}, nil)

		recorder := f.do(t, http.MethodGet, "/api/chats", "", token)

		req.Equal(http.StatusOK, recorder.Code)
		chats := decodeBody[[]domain.ChatWithMembers](t, recorder)
		req.Len(chats, 1)
		req.Equal(domain.ChatID(3), chats[0].ID)
	})

	t.Run("should refuse to act as another user", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, true)
		token, err := f.tokens.GenerateToken(7)
		req.NoError(err)

		recorder := f.do(t, http.MethodGet, "/api/chats?userId=8", "", token)

		req.Equal(http.StatusForbidden, recorder.Code)
	})

	t.Run("should require a token when configured", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, true)

		recorder := f.do(t, http.MethodGet, "/api/chats?userId=7", "", "")

		req.Equal(http.StatusUnauthorized, recorder.Code)
	})

	t.Run("should trust the user id without token requirement", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, false)
		f.directory.EXPECT().ListUserChats(domain.UserID(7)).Return(nil, nil)

		recorder := f.do(t, http.MethodGet, "/api/chats?userId=7", "", "")

		req.Equal(http.StatusOK, recorder.Code)
	})

	t.Run("should reject a non numeric user id", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, false)

		recorder := f.do(t, http.MethodGet, "/api/chats?userId=abc", "", "")

		req.Equal(http.StatusBadRequest, recorder.Code)
	})

	t.Run("should map unknown users to not found", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, false)
		f.directory.EXPECT().ListUserChats(domain.UserID(9)).Return(nil, errors.ErrUserNotFound)

		recorder := f.do(t, http.MethodGet, "/api/chats?userId=9", "", "")

		req.Equal(http.StatusNotFound, recorder.Code)
		req.Equal(errors.CodeNotFound, decodeBody[errorBody](t, recorder).Code)
	})
}

func TestListMessages(t *testing.T) {
	t.Run("should pass the limit through for members", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, false)
		gomock.InOrder(
			f.directory.EXPECT().IsMember(domain.ChatID(3), domain.UserID(7)).Return(true, nil),
			f.directory.EXPECT().ListMessages(domain.ChatID(3), 20).Return([]domain.MessageWithSender{
				{Message: domain.Message{ID: 1, ChatID: 3, Content: "a"}},
				{Message: domain.Message{ID: 2, ChatID: 3, Content: "b"}},
			}, nil),
		)

		recorder := f.do(t, http.MethodGet, "/api/chats/3/messages?limit=20&userId=7", "", "")

		req.Equal(http.StatusOK, recorder.Code)
		messages := decodeBody[[]domain.MessageWithSender](t, recorder)
		req.Len(messages, 2)
		req.Equal("a", messages[0].Content)
	})

	t.Run("should refuse non members", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, false)
		f.directory.EXPECT().IsMember(domain.ChatID(3), domain.UserID(7)).Return(false, nil)

		recorder := f.do(t, http.MethodGet, "/api/chats/3/messages?userId=7", "", "")

		req.Equal(http.StatusForbidden, recorder.Code)
		req.Equal(errors.CodeNotMember, decodeBody[errorBody](t, recorder).Code)
	})

	t.Run("should list anonymously when tokens are optional", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, false)
		f.directory.EXPECT().ListMessages(domain.ChatID(3), 0).Return(nil, nil)

		recorder := f.do(t, http.MethodGet, "/api/chats/3/messages", "", "")

		req.Equal(http.StatusOK, recorder.Code)
	})

	t.Run("should report unknown chats", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, false)
		f.directory.EXPECT().ListMessages(domain.ChatID(99), 0).Return(nil, errors.ErrChatNotFound)

		recorder := f.do(t, http.MethodGet, "/api/chats/99/messages", "", "")

		req.Equal(http.StatusNotFound, recorder.Code)
	})
}

func TestCreateChat(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, true)
	token, err := f.tokens.GenerateToken(7)
	req.NoError(err)
	link := "https://t.me/+abc"
	f.directory.EXPECT().CreateChat(domain.CreateChatCommand{Type: domain.ChatGroup, Name: "Team", CreatedBy: 7}).
		Return(domain.Chat{ID: 4, Type: domain.ChatGroup, Name: "Team", InviteLink: &link, CreatedBy: 7}, nil)

	recorder := f.do(t, http.MethodPost, "/api/chats", `{"type":"group","name":"Team"}`, token)

	req.Equal(http.StatusCreated, recorder.Code)
	chat := decodeBody[domain.Chat](t, recorder)
	req.Equal(link, *chat.InviteLink)
}

func TestCreatePrivateChat_And_Join(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, false)
	f.directory.EXPECT().CreatePrivateChatIfAbsent(domain.UserID(7), domain.UserID(8)).Return(domain.Chat{ID: 5, Type: domain.ChatPrivate}, nil)
	f.directory.EXPECT().JoinByInvite("https://t.me/+abc", domain.UserID(7)).Return(domain.Chat{ID: 4}, nil)

	recorder := f.do(t, http.MethodPost, "/api/chats/private", `{"userId":7,"peerId":8}`, "")
	req.Equal(http.StatusOK, recorder.Code)
	req.Equal(domain.ChatID(5), decodeBody[domain.Chat](t, recorder).ID)

	recorder = f.do(t, http.MethodPost, "/api/chats/join", `{"userId":7,"inviteLink":"https://t.me/+abc"}`, "")
	req.Equal(http.StatusOK, recorder.Code)
	req.Equal(domain.ChatID(4), decodeBody[domain.Chat](t, recorder).ID)
}

func TestEditMessage(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, false)
	f.directory.EXPECT().EditMessage(domain.EditMessageCommand{MessageID: 12, EditorID: 8, Content: "fixed"}).
		Return(domain.MessageWithSender{}, errors.ErrForbidden)

	recorder := f.do(t, http.MethodPatch, "/api/messages/12", `{"userId":8,"content":"fixed"}`, "")

	req.Equal(http.StatusForbidden, recorder.Code)
}

func TestUsers(t *testing.T) {
	t.Run("should search by handle", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, false)
		f.accounts.EXPECT().SearchUsers("ali").Return([]domain.User{{ID: 1, FirstName: "Alice"}}, nil)

		recorder := f.do(t, http.MethodGet, "/api/users/search?q=ali", "", "")

		req.Equal(http.StatusOK, recorder.Code)
		req.Len(decodeBody[[]domain.User](t, recorder), 1)
	})

	t.Run("should update only its own profile", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, true)
		token, err := f.tokens.GenerateToken(7)
		req.NoError(err)

		recorder := f.do(t, http.MethodPatch, "/api/users/8", `{"firstName":"Mallory"}`, token)

		req.Equal(http.StatusForbidden, recorder.Code)
	})

	t.Run("should report a taken handle as conflict", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, true)
		token, err := f.tokens.GenerateToken(7)
		req.NoError(err)
		f.accounts.EXPECT().UpdateProfile(domain.UserID(7), gomock.Cond(func(u domain.ProfileUpdate) bool {
			return u.Username != nil && *u.Username == "alice"
		})).Return(domain.User{}, errors.ErrHandleTaken)

		recorder := f.do(t, http.MethodPatch, "/api/users/7", `{"username":"alice"}`, token)

		req.Equal(http.StatusConflict, recorder.Code)
	})

	t.Run("should change the password of the token owner", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, true)
		token, err := f.tokens.GenerateToken(7)
		req.NoError(err)
		f.accounts.EXPECT().UpdatePassword(domain.UpdatePasswordCommand{UserID: 7, CurrentPassword: "old-pass", NewPassword: "new-pass"}).Return(nil)

		recorder := f.do(t, http.MethodPut, "/api/users/7/password", `{"currentPassword":"old-pass","newPassword":"new-pass"}`, token)

		req.Equal(http.StatusNoContent, recorder.Code)
	})

	t.Run("should list owned bots", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, false)
		f.directory.EXPECT().ListUserBots(domain.UserID(7)).Return([]domain.Bot{{ID: 1, Username: "cool_bot"}}, nil)

		recorder := f.do(t, http.MethodGet, "/api/users/7/bots", "", "")

		req.Equal(http.StatusOK, recorder.Code)
		req.Equal("cool_bot", decodeBody[[]domain.Bot](t, recorder)[0].Username)
	})
}

func TestCreateBot(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, false)
	f.directory.EXPECT().CreateBot(domain.CreateBotCommand{Name: "MyBot", Username: "cool_bot", CreatedBy: 7}).
		Return(domain.Bot{ID: 1, Username: "cool_bot"}, domain.Chat{ID: 9, Type: domain.ChatBot}, nil)

	recorder := f.do(t, http.MethodPost, "/api/bots", `{"name":"MyBot","username":"cool_bot","createdBy":7}`, "")

	req.Equal(http.StatusCreated, recorder.Code)
	body := decodeBody[createBotResponse](t, recorder)
	req.Equal(domain.ChatID(9), body.Chat.ID)
}

func TestHealth(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, true)

	recorder := f.do(t, http.MethodGet, "/healthz", "", "")

	req.Equal(http.StatusOK, recorder.Code)
	req.JSONEq(`{"status":"ok"}`, recorder.Body.String())
}
