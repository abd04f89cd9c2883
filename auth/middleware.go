package auth

import (
	"chat-relay/domain"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// Middleware handles JWT validation for incoming HTTP calls.
// When required is false, requests without an Authorization header pass
// through anonymously, a header carrying a bad token is still rejected.
func Middleware(issuer *TokenIssuer, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				if required {
					http.Error(w, "authorization token is missing", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			// Expecting the standard "Bearer <token>" format
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			claims, err := issuer.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			// Inject user identity into context for downstream handlers
			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (domain.UserID, bool) {
	userID, ok := ctx.Value(UserIDKey).(domain.UserID)
	return userID, ok
}
