package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters. Zero attempt budgets
// disable the corresponding check.
type Config struct {
	EnableIPThrottle bool

	MaxLoginAttempts int
	LoginCooldown    time.Duration

	MaxRefreshAttempts int
	RefreshCooldown    time.Duration

	MaxRequestAttempts int
	RequestCooldown    time.Duration

	MaxConfirmAttempts int
	ConfirmCooldown    time.Duration
}

// Limiter enforces per-identifier and per-IP budgets for the auth
// endpoints using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogin checks whether the email+IP pair is within the login attempt
// budget without consuming an attempt.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	if l.config.MaxLoginAttempts <= 0 {
		return nil
	}

	if err := l.checkCounter(ctx, loginEmailKey(email), l.config.MaxLoginAttempts); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, loginIPKey(ip), l.config.MaxLoginAttempts); err != nil {
			return err
		}
	}

	return nil
}

// IncrementLogin records a failed login attempt for the email+IP pair.
func (l *Limiter) IncrementLogin(ctx context.Context, email, ip string) error {
	if l.config.MaxLoginAttempts <= 0 {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, loginEmailKey(email), l.config.LoginCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, loginIPKey(ip), l.config.LoginCooldown)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// ResetLogin clears the failed-login counters after a successful login or
// password reset.
func (l *Limiter) ResetLogin(ctx context.Context, email, ip string) error {
	keys := []string{loginEmailKey(email)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, loginIPKey(ip))
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// CheckRefresh consumes one refresh attempt for the account and fails when
// the window budget is exhausted.
func (l *Limiter) CheckRefresh(ctx context.Context, accountID string) error {
	if l.config.MaxRefreshAttempts <= 0 {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, refreshKey(accountID), l.config.RefreshCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRefreshAttempts) {
		return ErrRateLimited
	}

	return nil
}

// CheckRequest consumes one challenge-request attempt (register, resend
// verification, forgot password) for the email+IP pair.
func (l *Limiter) CheckRequest(ctx context.Context, kind, email, ip string) error {
	if l.config.MaxRequestAttempts <= 0 {
		return nil
	}
	return l.consume(ctx, requestKey(kind, email), requestKey(kind, "ip:"+ip), ip,
		l.config.MaxRequestAttempts, l.config.RequestCooldown)
}

// CheckConfirm consumes one challenge-confirm attempt (verify email, reset
// password) for the email+IP pair. A tighter budget than CheckRequest
// since each attempt is an OTP guess.
func (l *Limiter) CheckConfirm(ctx context.Context, kind, email, ip string) error {
	if l.config.MaxConfirmAttempts <= 0 {
		return nil
	}
	return l.consume(ctx, confirmKey(kind, email), confirmKey(kind, "ip:"+ip), ip,
		l.config.MaxConfirmAttempts, l.config.ConfirmCooldown)
}

func (l *Limiter) consume(ctx context.Context, emailKey, ipKey, ip string, max int, cooldown time.Duration) error {
	count, err := l.incrementWithTTL(ctx, emailKey, cooldown)
	if err != nil {
		return err
	}
	if count > int64(max) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, ipKey, cooldown)
		if err != nil {
			return err
		}
		if count > int64(max) {
			return ErrRateLimited
		}
	}

	return nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// The counter holds attempts already spent, so reaching the budget
	// means the next attempt is denied.
	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func loginEmailKey(email string) string   { return "sa:rl:lu:" + email }
func loginIPKey(ip string) string         { return "sa:rl:li:" + ip }
func refreshKey(accountID string) string  { return "sa:rl:rf:" + accountID }
func requestKey(kind, id string) string   { return "sa:rl:rq:" + kind + ":" + id }
func confirmKey(kind, id string) string   { return "sa:rl:cf:" + kind + ":" + id }
