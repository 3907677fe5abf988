package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	maxFailedLogins  = 5
	lockoutWindow    = 15 * time.Minute
)

// HashPassword derives a PBKDF2-SHA256 hash. A fresh salt is generated when
// salt is empty.
func HashPassword(password, salt string) (hash, usedSalt string) {
	if salt == "" {
		salt = randomHex(16)
	}
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, sha256.Size, sha256.New)
	return hex.EncodeToString(key), salt
}

// VerifyPassword checks a password against a stored hash and salt.
func VerifyPassword(password, storedHash, salt string) bool {
	hash, _ := HashPassword(password, salt)
	return hmac.Equal([]byte(hash), []byte(storedHash))
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// LoginGuard locks out identifiers after repeated failed logins within the
// lockout window.
type LoginGuard struct {
	mu     sync.Mutex
	failed map[string][]time.Time
	now    func() time.Time
}

// NewLoginGuard creates an empty guard.
func NewLoginGuard() *LoginGuard {
	return &LoginGuard{
		failed: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allowed reports whether the identifier may attempt a login, and how long to
// wait when locked out.
func (g *LoginGuard) Allowed(identifier string) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.failed[identifier] = pruneBefore(g.failed[identifier], now.Add(-lockoutWindow))

	attempts := g.failed[identifier]
	if len(attempts) >= maxFailedLogins {
		oldest := attempts[0]
		for _, t := range attempts {
			if t.Before(oldest) {
				oldest = t
			}
		}
		return false, oldest.Add(lockoutWindow).Sub(now)
	}
	return true, 0
}

// RecordFailure registers a failed login.
func (g *LoginGuard) RecordFailure(identifier string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed[identifier] = append(g.failed[identifier], g.now())
}

// Clear forgets failures after a successful login.
func (g *LoginGuard) Clear(identifier string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.failed, identifier)
}

// GenerateAPIKey returns a new "hms_" prefixed API key.
func GenerateAPIKey() string {
	return "hms_" + randomToken(32)
}

var dangerousPatterns = []string{"<script", "javascript:", "onerror=", "onclick="}

// SanitizeInput strips common injection fragments and surrounding whitespace.
func SanitizeInput(text string) string {
	for _, p := range dangerousPatterns {
		text = strings.ReplaceAll(text, p, "")
	}
	return strings.TrimSpace(text)
}

var sessionIDPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// ValidSessionID reports whether the id looks like a UUID.
func ValidSessionID(sessionID string) bool {
	return sessionIDPattern.MatchString(strings.ToLower(sessionID))
}
