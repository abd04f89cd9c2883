package auth

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MonMotDePasseTr0pSûr!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Negative comparison (wrong password)
	match, err = ComparePassword("MauvaisMDP", hash)
	req.NoError(err)
	req.False(match)
}

func TestCompare_Rejects_Malformed_Hash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("secret", "plain-text")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestHandleValidation(t *testing.T) {
	tests := []struct {
		handle string
		user   bool
		bot    bool
	}{
		{"cool_bot", true, true},
		{"coolbot", true, true},
		{"TetrisBot", true, true},
		{"coolapp", true, false},
		{"_bot", false, false},
		{"9lives_bot", false, false},
		{"ab", false, false},
		{"with space bot", false, false},
		{strings.Repeat("a", 30) + "bot", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			req := require.New(t)
			req.Equal(tt.user, IsValidHandle(tt.handle))
			req.Equal(tt.bot, IsValidBotHandle(tt.handle))
		})
	}
}

func TestValidate_Wraps_Validation_Error(t *testing.T) {
	req := require.New(t)

	err := Validate(domain.CreateBotCommand{Name: "MyBot", Username: "coolapp", CreatedBy: 1})
	req.ErrorIs(err, errors.ErrValidation)

	err = Validate(domain.ProfileUpdate{AdditionalUsernames: &[]string{"ok_name", "9bad"}})
	req.ErrorIs(err, errors.ErrValidation)

	req.NoError(Validate(domain.ProfileUpdate{Username: lo.ToPtr("alice")}))
	req.ErrorIs(ValidatePassword("123"), errors.ErrValidation)
}

func TestToken_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.GenerateToken(42)
	req.NoError(err)

	claims, err := issuer.ValidateToken(token)
	req.NoError(err)
	req.Equal(domain.UserID(42), claims.UserID)

	_, err = NewTokenIssuer("other", time.Hour).ValidateToken(token)
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestToken_Expired(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("secret", time.Minute)
	token, err := issuer.GenerateToken(42)
	req.NoError(err)

	issuer.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = issuer.ValidateToken(token)
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.GenerateToken(7)
	require.NoError(t, err)

	tests := []struct {
		name     string
		required bool
		header   string
		status   int
		userID   domain.UserID
	}{
		{"Valid token", true, "Bearer " + token, http.StatusOK, 7},
		{"Missing token, required", true, "", http.StatusUnauthorized, 0},
		{"Missing token, optional", false, "", http.StatusOK, 0},
		{"Bad token, optional", false, "Bearer nope", http.StatusUnauthorized, 0},
		{"Not a bearer", true, "Basic abc", http.StatusUnauthorized, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			var seen domain.UserID
			handler := Middleware(issuer, tt.required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = UserIDFromContext(r.Context())
			}))
			request := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			req.Equal(tt.status, recorder.Code)
			req.Equal(tt.userID, seen)
		})
	}
}

// BenchmarkHashPassword measures the CPU/RAM cost of one hash
func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
