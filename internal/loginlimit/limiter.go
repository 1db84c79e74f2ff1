// Package loginlimit throttles repeated failed logins per credential key.
// Each key (normalized email) carries its own counter and lockout window,
// so one attacker hammering a single mailbox cannot lock anyone else out.
package loginlimit

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	failures  int
	windowEnd time.Time
}

type Limiter struct {
	mu          sync.Mutex
	entries     map[string]entry
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
}

func New(maxAttempts int, lockout time.Duration) *Limiter {
	return &Limiter{
		entries:     make(map[string]entry),
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

// Allowed reports whether a login attempt for key may proceed.
// A key stays blocked until its lockout window elapses; expired entries
// are dropped on the way through.
func (l *Limiter) Allowed(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := normalize(key)
	e, ok := l.entries[k]
	if !ok {
		return true
	}
	if l.now().After(e.windowEnd) {
		delete(l.entries, k)
		return true
	}
	return e.failures < l.maxAttempts
}

// RecordFailure counts one failed attempt. The lockout window starts at
// the first failure and is not extended by later ones, matching the
// fixed-timer reset of the behavior this replaces.
func (l *Limiter) RecordFailure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := normalize(key)
	e, ok := l.entries[k]
	if !ok || l.now().After(e.windowEnd) {
		l.entries[k] = entry{failures: 1, windowEnd: l.now().Add(l.lockout)}
		return
	}
	e.failures++
	l.entries[k] = e
}

// RecordSuccess clears the counter for key.
func (l *Limiter) RecordSuccess(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, normalize(key))
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
