package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeClock advances manually so window expiry is deterministic.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRateLimiterMinuteWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}
	r := NewRateLimiter(3, 100)
	r.now = clock.now

	for i := 0; i < 3; i++ {
		if d := r.Allow("c"); !d.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if d := r.Allow("c"); d.Allowed || d.Reason != "rate_limit_minute" {
		t.Errorf("4th request should hit the minute limit, got %+v", d)
	}

	clock.advance(61 * time.Second)
	if d := r.Allow("c"); !d.Allowed {
		t.Error("window should slide after a minute")
	}
}

func TestRateLimiterHourWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}
	r := NewRateLimiter(100, 5)
	r.now = clock.now

	for i := 0; i < 5; i++ {
		r.Allow("c")
		clock.advance(2 * time.Minute)
	}
	if d := r.Allow("c"); d.Allowed || d.Reason != "rate_limit_hour" {
		t.Errorf("expected hour limit, got %+v", d)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	r := NewRateLimiter(1, 100)
	if d := r.Allow("a"); !d.Allowed {
		t.Fatal("first request for a should pass")
	}
	if d := r.Allow("b"); !d.Allowed {
		t.Error("b must not share a's budget")
	}
}

func TestRateLimiterBlockAndWhitelist(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}
	r := NewRateLimiter(10, 100)
	r.now = clock.now

	r.Block("bad", time.Hour)
	if d := r.Allow("bad"); d.Allowed || d.Reason != "blocked" {
		t.Errorf("blocked client should be rejected, got %+v", d)
	}
	clock.advance(2 * time.Hour)
	if d := r.Allow("bad"); !d.Allowed {
		t.Error("block should expire")
	}

	r.Whitelist("vip")
	for i := 0; i < 50; i++ {
		if d := r.Allow("vip"); !d.Allowed {
			t.Fatal("whitelisted client must never be limited")
		}
	}
}

func TestTokenIssueAndVerify(t *testing.T) {
	m := NewTokenManager("test-secret")
	token, err := m.Issue("admin", "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "admin" || claims.Role != "admin" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.ID == "" {
		t.Error("token should carry a jti")
	}
}

func TestTokenExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}
	m := NewTokenManager("test-secret")
	m.now = clock.now

	token, err := m.Issue("admin", "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	clock.advance(2 * time.Hour)
	if _, err := m.Verify(token); err == nil {
		t.Error("expired token should fail verification")
	}
}

func TestTokenRevocation(t *testing.T) {
	m := NewTokenManager("test-secret")
	token, err := m.Issue("admin", "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	m.Revoke(token)
	if _, err := m.Verify(token); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a").Issue("u", "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewTokenManager("secret-b").Verify(token); err == nil {
		t.Error("token signed with another secret should fail")
	}
}

func TestRefreshFlow(t *testing.T) {
	m := NewTokenManager("test-secret")
	refresh, err := m.IssueRefresh("admin")
	if err != nil {
		t.Fatal(err)
	}

	access, err := m.Refresh(refresh)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.Verify(access)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Role != "admin" {
		t.Errorf("refreshed token should be an admin token, got %s", claims.Role)
	}

	if _, err := m.Refresh(access); !errors.Is(err, ErrNotRefreshToken) {
		t.Errorf("access token must not refresh, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, salt := HashPassword("secret123", "")
	if hash == "" || salt == "" {
		t.Fatal("hash and salt must be non-empty")
	}
	if !VerifyPassword("secret123", hash, salt) {
		t.Error("correct password should verify")
	}
	if VerifyPassword("wrong", hash, salt) {
		t.Error("wrong password must not verify")
	}

	hash2, _ := HashPassword("secret123", salt)
	if hash2 != hash {
		t.Error("same salt must reproduce the hash")
	}
}

func TestLoginGuardLockout(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}
	g := NewLoginGuard()
	g.now = clock.now

	for i := 0; i < 5; i++ {
		g.RecordFailure("user")
	}
	ok, retry := g.Allowed("user")
	if ok {
		t.Fatal("5 failures should lock out")
	}
	if retry <= 0 {
		t.Errorf("expected positive retry hint, got %v", retry)
	}

	clock.advance(16 * time.Minute)
	if ok, _ := g.Allowed("user"); !ok {
		t.Error("lockout should expire after the window")
	}

	g.RecordFailure("other")
	g.Clear("other")
	if ok, _ := g.Allowed("other"); !ok {
		t.Error("cleared identifier should be allowed")
	}
}

func TestSanitizeInput(t *testing.T) {
	got := SanitizeInput("  hello <script>alert(1)</script> javascript:x ")
	if strings.Contains(got, "<script") || strings.Contains(got, "javascript:") {
		t.Errorf("dangerous fragments should be stripped, got %q", got)
	}
	if got != SanitizeInput(got) {
		t.Error("sanitization should be idempotent here")
	}
}

func TestValidSessionID(t *testing.T) {
	if !ValidSessionID("A1B2C3D4-e5f6-7890-abcd-ef1234567890") {
		t.Error("uppercase UUID should validate")
	}
	for _, bad := range []string{"", "not-a-uuid", "a1b2c3d4e5f67890abcdef1234567890"} {
		if ValidSessionID(bad) {
			t.Errorf("%q should be invalid", bad)
		}
	}
}

func TestGenerateAPIKey(t *testing.T) {
	k := GenerateAPIKey()
	if !strings.HasPrefix(k, "hms_") || len(k) < 20 {
		t.Errorf("unexpected key format %q", k)
	}
	if k == GenerateAPIKey() {
		t.Error("keys should be unique")
	}
}
