// Package session issues and verifies the signed session tokens the
// admin panel stores in a cookie.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ovee/byceps/internal/domain/authz"
	"github.com/ovee/byceps/internal/domain/user"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token expired")
)

// Claims is the payload of a session token.
type Claims struct {
	UserID      string   `json:"uid"`
	ScreenName  string   `json:"scn"`
	Permissions []string `json:"prm"`
	jwt.RegisteredClaims
}

// Session is a verified session.
type Session struct {
	UserID      uuid.UUID
	ScreenName  string
	Permissions authz.PermissionSet
}

// Manager signs and verifies session tokens.
type Manager struct {
	secret     []byte
	ttl        time.Duration
	CookieName string
	Secure     bool
}

// NewManager creates a session manager. The secret must be long enough
// to make brute forcing the HMAC pointless.
func NewManager(secret string, ttl time.Duration, cookieName string, secure bool) (*Manager, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	return &Manager{
		secret:     []byte(secret),
		ttl:        ttl,
		CookieName: cookieName,
		Secure:     secure,
	}, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed token for the user with their resolved
// permissions baked in.
func (m *Manager) Issue(u user.User, permissions authz.PermissionSet) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      u.ID.String(),
		ScreenName:  u.ScreenName,
		Permissions: permissions.Slice(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the session it represents.
func (m *Manager) Parse(tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Session{
		UserID:      userID,
		ScreenName:  claims.ScreenName,
		Permissions: authz.ParsePermissions(claims.Permissions),
	}, nil
}
