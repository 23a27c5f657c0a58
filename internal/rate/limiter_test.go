package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*miniredis.Miniredis, *Limiter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, New(rdb, cfg)
}

func TestLoginBudget(t *testing.T) {
	_, l := newTestLimiter(t, Config{
		MaxLoginAttempts: 3,
		LoginCooldown:    time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckLogin(ctx, "a@x.com", ""); err != nil {
			t.Fatalf("attempt %d blocked early: %v", i, err)
		}
		if err := l.IncrementLogin(ctx, "a@x.com", ""); err != nil {
			t.Fatalf("increment %d failed: %v", i, err)
		}
	}

	if err := l.IncrementLogin(ctx, "a@x.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.CheckLogin(ctx, "a@x.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected CheckLogin to deny, got %v", err)
	}

	// Other identifiers stay unaffected.
	if err := l.CheckLogin(ctx, "b@x.com", ""); err != nil {
		t.Fatalf("unrelated email limited: %v", err)
	}
}

func TestLoginDeniedAtExactBudget(t *testing.T) {
	_, l := newTestLimiter(t, Config{
		MaxLoginAttempts: 2,
		LoginCooldown:    time.Minute,
	})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "a@x.com", "")
	_ = l.IncrementLogin(ctx, "a@x.com", "")

	// Exactly MaxLoginAttempts failures spent: the non-consuming check
	// must already deny, not wait for one more failure.
	if err := l.CheckLogin(ctx, "a@x.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected denial at exact budget, got %v", err)
	}
}

func TestResetLoginClearsCounter(t *testing.T) {
	_, l := newTestLimiter(t, Config{
		MaxLoginAttempts: 1,
		LoginCooldown:    time.Minute,
	})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "a@x.com", "")
	_ = l.IncrementLogin(ctx, "a@x.com", "")
	if err := l.CheckLogin(ctx, "a@x.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected denial before reset, got %v", err)
	}

	if err := l.ResetLogin(ctx, "a@x.com", ""); err != nil {
		t.Fatalf("ResetLogin failed: %v", err)
	}
	if err := l.CheckLogin(ctx, "a@x.com", ""); err != nil {
		t.Fatalf("expected clean slate after reset, got %v", err)
	}
}

func TestIPThrottleSharedAcrossEmails(t *testing.T) {
	_, l := newTestLimiter(t, Config{
		EnableIPThrottle: true,
		MaxLoginAttempts: 2,
		LoginCooldown:    time.Minute,
	})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "a@x.com", "10.0.0.1")
	_ = l.IncrementLogin(ctx, "b@x.com", "10.0.0.1")
	err := l.IncrementLogin(ctx, "c@x.com", "10.0.0.1")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected shared IP budget exhaustion, got %v", err)
	}
}

func TestRefreshBudgetConsumes(t *testing.T) {
	_, l := newTestLimiter(t, Config{
		MaxRefreshAttempts: 2,
		RefreshCooldown:    time.Minute,
	})
	ctx := context.Background()

	if err := l.CheckRefresh(ctx, "acct-1"); err != nil {
		t.Fatalf("first refresh denied: %v", err)
	}
	if err := l.CheckRefresh(ctx, "acct-1"); err != nil {
		t.Fatalf("second refresh denied: %v", err)
	}
	if err := l.CheckRefresh(ctx, "acct-1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected refresh denial, got %v", err)
	}
}

func TestRequestAndConfirmBudgetsIndependent(t *testing.T) {
	_, l := newTestLimiter(t, Config{
		MaxRequestAttempts: 1,
		RequestCooldown:    time.Minute,
		MaxConfirmAttempts: 1,
		ConfirmCooldown:    time.Minute,
	})
	ctx := context.Background()

	if err := l.CheckRequest(ctx, "register", "a@x.com", ""); err != nil {
		t.Fatalf("first request denied: %v", err)
	}
	if err := l.CheckRequest(ctx, "register", "a@x.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected request denial, got %v", err)
	}

	// Confirm budget is tracked separately from request budget.
	if err := l.CheckConfirm(ctx, "verify", "a@x.com", ""); err != nil {
		t.Fatalf("confirm denied by request counter: %v", err)
	}
	// Different kinds do not share counters either.
	if err := l.CheckRequest(ctx, "reset", "a@x.com", ""); err != nil {
		t.Fatalf("different kind shared counter: %v", err)
	}
}

func TestWindowExpiry(t *testing.T) {
	mr, l := newTestLimiter(t, Config{
		MaxLoginAttempts: 1,
		LoginCooldown:    time.Minute,
	})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "a@x.com", "")
	_ = l.IncrementLogin(ctx, "a@x.com", "")
	if err := l.CheckLogin(ctx, "a@x.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected denial, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := l.CheckLogin(ctx, "a@x.com", ""); err != nil {
		t.Fatalf("expected fresh window after TTL, got %v", err)
	}
}

func TestUnavailableRedis(t *testing.T) {
	mr, l := newTestLimiter(t, Config{
		MaxLoginAttempts: 1,
		LoginCooldown:    time.Minute,
	})
	mr.Close()

	err := l.IncrementLogin(context.Background(), "a@x.com", "")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
