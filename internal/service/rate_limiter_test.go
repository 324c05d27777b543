package service

import (
	"context"
	"testing"
	"time"
)

func newWindowLimiterForTest(t *testing.T) (*WindowLimiter, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	limiter := NewWindowLimiter("password_change", RateLimitConfig{MaxAttempts: 5, Window: time.Minute}, clock)
	return limiter, clock
}

func TestWindowLimiterAllowsWithinBudget(t *testing.T) {
	limiter, _ := newWindowLimiterForTest(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		decision, err := limiter.CheckAndRecord(ctx, "alice")
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if !decision.Allowed {
			t.Fatalf("attempt %d denied inside the budget", i+1)
		}
		if want := 5 - (i + 1); decision.Remaining != want {
			t.Fatalf("attempt %d: remaining = %d, want %d", i+1, decision.Remaining, want)
		}
	}
}

func TestWindowLimiterDeniesSixthAttempt(t *testing.T) {
	limiter, _ := newWindowLimiterForTest(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := limiter.CheckAndRecord(ctx, "alice"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}

	decision, err := limiter.CheckAndRecord(ctx, "alice")
	if err != nil {
		t.Fatalf("sixth attempt: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("sixth attempt inside the window must be denied")
	}
	if decision.RetryAfter <= 0 || decision.RetryAfter > time.Minute {
		t.Fatalf("retry-after out of range: %v", decision.RetryAfter)
	}
}

func TestWindowLimiterReallowsAfterWindow(t *testing.T) {
	limiter, clock := newWindowLimiterForTest(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := limiter.CheckAndRecord(ctx, "alice"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}

	clock.Advance(time.Minute + time.Second)
	decision, err := limiter.CheckAndRecord(ctx, "alice")
	if err != nil {
		t.Fatalf("attempt after window: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("attempts outside the window must not count against the budget")
	}
}

func TestWindowLimiterRetryAfterTracksOldestAttempt(t *testing.T) {
	limiter, clock := newWindowLimiterForTest(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := limiter.CheckAndRecord(ctx, "alice"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		clock.Advance(2 * time.Second)
	}

	// Oldest attempt is 10s in the past, so it leaves the window in 50s.
	decision, err := limiter.CheckAndRecord(ctx, "alice")
	if err != nil {
		t.Fatalf("denied attempt: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected denial")
	}
	if decision.RetryAfter != 50*time.Second {
		t.Fatalf("retry-after = %v, want 50s", decision.RetryAfter)
	}
}

func TestWindowLimiterKeysAreIsolated(t *testing.T) {
	limiter, _ := newWindowLimiterForTest(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := limiter.CheckAndRecord(ctx, "alice"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}

	decision, err := limiter.CheckAndRecord(ctx, "bob")
	if err != nil {
		t.Fatalf("bob's attempt: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("alice exhausting her budget must not lock out bob")
	}
}

func TestWindowLimiterDeniedAttemptsAreNotRecorded(t *testing.T) {
	limiter, clock := newWindowLimiterForTest(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := limiter.CheckAndRecord(ctx, "alice"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}

	// Only the five allowed attempts count; once they age out the key is
	// clean no matter how many denials happened meanwhile.
	clock.Advance(time.Minute + time.Second)
	decision, err := limiter.CheckAndRecord(ctx, "alice")
	if err != nil {
		t.Fatalf("attempt after window: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("denied attempts must not extend the lockout")
	}
}

func TestWindowLimiterReset(t *testing.T) {
	limiter, _ := newWindowLimiterForTest(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := limiter.CheckAndRecord(ctx, "alice"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if err := limiter.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	decision, err := limiter.CheckAndRecord(ctx, "alice")
	if err != nil {
		t.Fatalf("attempt after reset: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("reset must clear the attempt history")
	}
}
