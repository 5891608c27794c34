package util

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

// Claims defines the custom claims for the session JWT. The registered ID
// (jti) keys the revocation list, so every issued token gets a fresh one.
type Claims struct {
	UserID      uuid.UUID          `json:"user_id"`
	Name        string             `json:"name"`
	AccountType domain.AccountType `json:"account_type"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new signed session token for a given user.
func GenerateToken(user *domain.UserProfile, secretKey string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      user.ID,
		Name:        user.Name,
		AccountType: user.AccountType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

// ValidateToken parses and validates a session token string.
func ValidateToken(tokenString, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	return claims, nil
}

// Session converts validated claims into the handle threaded through
// request contexts.
func (c *Claims) Session() *domain.Session {
	s := &domain.Session{
		UserID:      c.UserID,
		Name:        c.Name,
		AccountType: c.AccountType,
		TokenID:     c.ID,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
