// Package security covers rate limiting, admin token auth, password hashing
// and input validation.
package security

import (
	"sync"
	"time"
)

// Decision is the result of a rate limit check.
type Decision struct {
	Allowed         bool
	Reason          string
	RetryAfter      time.Duration
	RemainingMinute int
	RemainingHour   int
}

// RateLimiter enforces sliding-window per-minute and per-hour request limits
// per client identifier, with manual blocks and a whitelist.
type RateLimiter struct {
	perMinute int
	perHour   int

	mu        sync.Mutex
	minute    map[string][]time.Time
	hour      map[string][]time.Time
	blocked   map[string]time.Time
	whitelist map[string]bool
	now       func() time.Time
}

// NewRateLimiter creates a limiter with the given per-minute and per-hour
// budgets.
func NewRateLimiter(perMinute, perHour int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if perHour <= 0 {
		perHour = 1000
	}
	return &RateLimiter{
		perMinute: perMinute,
		perHour:   perHour,
		minute:    make(map[string][]time.Time),
		hour:      make(map[string][]time.Time),
		blocked:   make(map[string]time.Time),
		whitelist: make(map[string]bool),
		now:       time.Now,
	}
}

func pruneBefore(bucket []time.Time, cutoff time.Time) []time.Time {
	kept := bucket[:0]
	for _, t := range bucket {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Allow checks and records one request for the identifier.
func (r *RateLimiter) Allow(identifier string) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.whitelist[identifier] {
		return Decision{Allowed: true, Reason: "whitelisted"}
	}

	now := r.now()
	if until, ok := r.blocked[identifier]; ok {
		if now.Before(until) {
			return Decision{Allowed: false, Reason: "blocked", RetryAfter: until.Sub(now)}
		}
		delete(r.blocked, identifier)
	}

	r.minute[identifier] = pruneBefore(r.minute[identifier], now.Add(-time.Minute))
	r.hour[identifier] = pruneBefore(r.hour[identifier], now.Add(-time.Hour))

	if len(r.minute[identifier]) >= r.perMinute {
		return Decision{Allowed: false, Reason: "rate_limit_minute", RetryAfter: time.Minute}
	}
	if len(r.hour[identifier]) >= r.perHour {
		return Decision{Allowed: false, Reason: "rate_limit_hour", RetryAfter: time.Hour}
	}

	r.minute[identifier] = append(r.minute[identifier], now)
	r.hour[identifier] = append(r.hour[identifier], now)

	return Decision{
		Allowed:         true,
		RemainingMinute: r.perMinute - len(r.minute[identifier]),
		RemainingHour:   r.perHour - len(r.hour[identifier]),
	}
}

// Block rejects the identifier for the given duration.
func (r *RateLimiter) Block(identifier string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocked[identifier] = r.now().Add(d)
}

// Unblock lifts a manual block.
func (r *RateLimiter) Unblock(identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blocked, identifier)
}

// Whitelist exempts the identifier from limits.
func (r *RateLimiter) Whitelist(identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.whitelist[identifier] = true
}

// Unwhitelist removes the exemption.
func (r *RateLimiter) Unwhitelist(identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.whitelist, identifier)
}

// Stats reports limiter counters.
func (r *RateLimiter) Stats() (activeClients, blocked, whitelisted int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.minute), len(r.blocked), len(r.whitelist)
}
