package auth

import (
	"errors"
	"sync"
	"time"
)

// ErrTooManyAttempts is returned when an email has exceeded the failed
// sign-in threshold and must wait out the window.
var ErrTooManyAttempts = errors.New("too many login attempts")

const (
	maxFailedAttempts = 5
	attemptWindow     = 15 * time.Minute
)

type attemptEntry struct {
	count       int
	lastAttempt time.Time
}

// LoginLimiter tracks failed sign-in attempts per email. Once an email
// accumulates 5 failures, further attempts are rejected until 15 minutes have
// passed since the last failure; a successful sign-in clears the counter.
// The check happens before any credential lookup, so a locked-out email costs
// no store or hashing work.
type LoginLimiter struct {
	mu      sync.Mutex
	entries map[string]*attemptEntry
	now     func() time.Time
}

func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		entries: make(map[string]*attemptEntry),
		now:     time.Now,
	}
}

// Check returns ErrTooManyAttempts if the email is currently locked out.
func (l *LoginLimiter) Check(email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[email]
	if !ok {
		return nil
	}
	if e.count >= maxFailedAttempts && l.now().Sub(e.lastAttempt) < attemptWindow {
		return ErrTooManyAttempts
	}
	return nil
}

// RecordFailure notes a failed attempt for the email. A failure after the
// window has lapsed starts a fresh count rather than extending the old one.
func (l *LoginLimiter) RecordFailure(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[email]
	if !ok || now.Sub(e.lastAttempt) >= attemptWindow {
		l.entries[email] = &attemptEntry{count: 1, lastAttempt: now}
		return
	}
	e.count++
	e.lastAttempt = now
}

// Reset clears the counter for an email after a successful sign-in.
func (l *LoginLimiter) Reset(email string) {
	l.mu.Lock()
	delete(l.entries, email)
	l.mu.Unlock()
}

// Cleanup discards entries whose window has lapsed.
func (l *LoginLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for email, e := range l.entries {
		if now.Sub(e.lastAttempt) >= attemptWindow {
			delete(l.entries, email)
		}
	}
}
