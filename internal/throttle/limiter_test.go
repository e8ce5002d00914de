package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestLimiter(t *testing.T, maxAttempts int) (*RedisLimiter, *miniredis.Miniredis) {
	s := miniredis.RunT(t)

	limiter, err := NewRedisLimiter(s.Addr(), "", 0, maxAttempts, 15*time.Minute)
	if err != nil {
		t.Fatalf("failed to create limiter: %v", err)
	}
	t.Cleanup(func() { limiter.Close() })

	return limiter, s
}

func TestBlocksAfterMaxAttempts(t *testing.T) {
	limiter, _ := setupTestLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if limiter.Blocked(ctx, "alice") {
			t.Fatalf("blocked after %d failures", i)
		}
		limiter.RecordFailure(ctx, "alice")
	}

	if !limiter.Blocked(ctx, "alice") {
		t.Fatal("expected alice to be blocked")
	}
	if !limiter.Blocked(ctx, "ALICE") {
		t.Fatal("usernames should be counted case-insensitively")
	}
	if limiter.Blocked(ctx, "bob") {
		t.Fatal("bob should not share alice's counter")
	}
}

func TestWindowExpires(t *testing.T) {
	limiter, s := setupTestLimiter(t, 1)
	ctx := context.Background()

	limiter.RecordFailure(ctx, "alice")
	if !limiter.Blocked(ctx, "alice") {
		t.Fatal("expected alice to be blocked")
	}

	if ttl := s.TTL("login-failures:alice"); ttl != 15*time.Minute {
		t.Fatalf("ttl = %v, want 15m", ttl)
	}

	s.FastForward(16 * time.Minute)

	if limiter.Blocked(ctx, "alice") {
		t.Fatal("lockout should expire with the window")
	}
}

func TestResetClearsCounter(t *testing.T) {
	limiter, _ := setupTestLimiter(t, 2)
	ctx := context.Background()

	limiter.RecordFailure(ctx, "alice")
	limiter.RecordFailure(ctx, "alice")
	limiter.Reset(ctx, "alice")

	if limiter.Blocked(ctx, "alice") {
		t.Fatal("reset should clear the lockout")
	}
}

func TestFailsOpenWhenRedisIsDown(t *testing.T) {
	limiter, s := setupTestLimiter(t, 1)
	ctx := context.Background()

	limiter.RecordFailure(ctx, "alice")
	s.Close()

	if limiter.Blocked(ctx, "alice") {
		t.Fatal("limiter should let attempts through when redis is unreachable")
	}
}
