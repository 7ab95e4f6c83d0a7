// internal/utils/jwt.go
package utils

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const tokenIssuer = "bricolage"

type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Role     string   `json:"role"`
	Scopes   []string `json:"scopes"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) HasAnyScope(scopes ...string) bool {
	for _, required := range scopes {
		for _, scope := range c.Scopes {
			if scope == required {
				return true
			}
		}
	}
	return false
}

type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttlHours int) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		ttl:    time.Duration(ttlHours) * time.Hour,
		now:    time.Now,
	}
}

func (m *JWTManager) TTL() time.Duration {
	return m.ttl
}

func (m *JWTManager) Generate(userID uuid.UUID, username, role string, scopes []string) (string, error) {
	now := m.now()
	claims := JWTClaims{
		UserID:   userID.String(),
		Username: username,
		Role:     role,
		Scopes:   scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *JWTManager) Validate(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// BearerToken strips an optional "Bearer " prefix from a header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// SessionFromCookie extracts the token from a session cookie value.
// Both the raw token and the JSON cookie form `j:{"token":"..."}` are accepted.
func SessionFromCookie(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "j:") {
		return BearerToken(raw)
	}

	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(raw, "j:")), &session); err != nil {
		return ""
	}
	return BearerToken(session.Token)
}
