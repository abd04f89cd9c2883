package auth

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "chat-relay"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID domain.UserID `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks session tokens handed out on phone verification.
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

func NewTokenIssuer(secret string, duration time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), duration: duration, now: time.Now}
}

// GenerateToken creates a signed JWT for a specific user.
func (i *TokenIssuer) GenerateToken(userID domain.UserID) (string, error) {
	now := i.now()
	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(int64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	// Create the token using the HS256 algorithm (HMAC with SHA256).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return signed, nil
}

// ValidateToken parses and validates the signature and expiration of a JWT string.
func (i *TokenIssuer) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidCredentials, err)
	}

	// Verify if the token is valid and extract the claims.
	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("%w: %v", errors.ErrInvalidCredentials, jwt.ErrSignatureInvalid)
}
