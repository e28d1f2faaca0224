package auth

import (
	"errors"
	"testing"
	"time"
)

// fakeClock lets tests advance the limiter's notion of now.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testLimiter() (*LoginLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLoginLimiter()
	l.now = clock.now
	return l, clock
}

func TestLimiterAllowsFreshEmail(t *testing.T) {
	l, _ := testLimiter()

	if err := l.Check("alice@example.com"); err != nil {
		t.Fatalf("check fresh email: %v", err)
	}
}

func TestLimiterLocksAfterFiveFailures(t *testing.T) {
	l, _ := testLimiter()

	for i := 0; i < 4; i++ {
		l.RecordFailure("alice@example.com")
		if err := l.Check("alice@example.com"); err != nil {
			t.Fatalf("locked after %d failures", i+1)
		}
	}

	l.RecordFailure("alice@example.com")
	if err := l.Check("alice@example.com"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts after 5 failures, got %v", err)
	}
}

func TestLimiterIsPerEmail(t *testing.T) {
	l, _ := testLimiter()

	for i := 0; i < 5; i++ {
		l.RecordFailure("alice@example.com")
	}

	if err := l.Check("bob@example.com"); err != nil {
		t.Fatalf("unrelated email locked: %v", err)
	}
}

func TestLimiterUnlocksAfterWindow(t *testing.T) {
	l, clock := testLimiter()

	for i := 0; i < 5; i++ {
		l.RecordFailure("alice@example.com")
	}
	if err := l.Check("alice@example.com"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatal("expected lockout")
	}

	clock.advance(15*time.Minute - time.Second)
	if err := l.Check("alice@example.com"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatal("expected lockout to hold just inside the window")
	}

	clock.advance(2 * time.Second)
	if err := l.Check("alice@example.com"); err != nil {
		t.Fatalf("expected lockout to expire, got %v", err)
	}
}

func TestLimiterFailureAfterWindowStartsFreshCount(t *testing.T) {
	l, clock := testLimiter()

	for i := 0; i < 4; i++ {
		l.RecordFailure("alice@example.com")
	}
	clock.advance(16 * time.Minute)

	// This failure lands after the window, so the count restarts at 1
	// instead of reaching 5.
	l.RecordFailure("alice@example.com")
	if err := l.Check("alice@example.com"); err != nil {
		t.Fatalf("expected fresh count after window, got %v", err)
	}
}

func TestLimiterResetClears(t *testing.T) {
	l, _ := testLimiter()

	for i := 0; i < 5; i++ {
		l.RecordFailure("alice@example.com")
	}
	l.Reset("alice@example.com")

	if err := l.Check("alice@example.com"); err != nil {
		t.Fatalf("expected reset to clear lockout, got %v", err)
	}
}

func TestLimiterCleanup(t *testing.T) {
	l, clock := testLimiter()

	l.RecordFailure("alice@example.com")
	l.RecordFailure("bob@example.com")

	clock.advance(16 * time.Minute)
	l.RecordFailure("carol@example.com")
	l.Cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries["alice@example.com"]; ok {
		t.Error("expected stale entry to be removed")
	}
	if _, ok := l.entries["carol@example.com"]; !ok {
		t.Error("expected fresh entry to survive cleanup")
	}
}
