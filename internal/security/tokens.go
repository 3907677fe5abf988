package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

var (
	// ErrTokenRevoked is returned for tokens whose jti was revoked.
	ErrTokenRevoked = errors.New("token has been revoked")
	// ErrNotRefreshToken is returned when Refresh gets a non-refresh token.
	ErrNotRefreshToken = errors.New("not a refresh token")
)

// Claims are the JWT claims carried by issued tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens with revocation by token id.
type TokenManager struct {
	secret []byte

	mu      sync.Mutex
	revoked map[string]bool
	now     func() time.Time
}

// NewTokenManager creates a manager with the given signing secret. An empty
// secret gets a random one; tokens then die with the process.
func NewTokenManager(secret string) *TokenManager {
	if secret == "" {
		secret = randomToken(32)
	}
	return &TokenManager{
		secret:  []byte(secret),
		revoked: make(map[string]bool),
		now:     time.Now,
	}
}

// Issue creates a token for the user with the given role and lifetime.
func (m *TokenManager) Issue(userID, role string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        randomToken(16),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// IssueRefresh creates a week-long refresh token.
func (m *TokenManager) IssueRefresh(userID string) (string, error) {
	return m.Issue(userID, "refresh", refreshTokenTTL)
}

// Verify parses and validates a token, rejecting revoked ids.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	m.mu.Lock()
	revoked := m.revoked[claims.ID]
	m.mu.Unlock()
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke invalidates a token by its id. Invalid tokens are ignored.
func (m *TokenManager) Revoke(tokenString string) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.revoked[claims.ID] = true
	m.mu.Unlock()
}

// Refresh exchanges a valid refresh token for a new access token.
func (m *TokenManager) Refresh(refreshToken string) (string, error) {
	claims, err := m.Verify(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.Role != "refresh" {
		return "", ErrNotRefreshToken
	}
	return m.Issue(claims.Subject, "admin", defaultTokenTTL)
}

func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
