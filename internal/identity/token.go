package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken is returned when the session token cannot be verified
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the payload of a rider session token
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Token is a Provider backed by an HS256 session token. The token is
// verified on every call so an expired session stops resolving a user.
type Token struct {
	raw    string
	secret []byte
}

// NewToken creates a provider for the given token and signing secret
func NewToken(raw, secret string) *Token {
	return &Token{raw: raw, secret: []byte(secret)}
}

// CurrentUserID implements Provider
func (t *Token) CurrentUserID(context.Context) (int64, error) {
	if t.raw == "" {
		return 0, ErrNoCurrentUser
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(t.raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID <= 0 {
		return 0, ErrNoCurrentUser
	}
	return claims.UserID, nil
}

// IssueToken signs a session token for userID valid for ttl
func IssueToken(userID int64, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
