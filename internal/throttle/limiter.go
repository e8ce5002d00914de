// Package throttle counts failed logins so repeated password guessing gets
// locked out for a while.
package throttle

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginGuard is consulted by the login handler around each attempt.
type LoginGuard interface {
	Blocked(ctx context.Context, username string) bool
	RecordFailure(ctx context.Context, username string)
	Reset(ctx context.Context, username string)
}

// RedisLimiter keeps one counter per username that expires after the window.
type RedisLimiter struct {
	client      *redis.Client
	prefix      string
	maxAttempts int64
	window      time.Duration
}

// NewRedisLimiter connects to Redis and checks it answers.
func NewRedisLimiter(addr, password string, db int, maxAttempts int, window time.Duration) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisLimiterWithClient(client, maxAttempts, window), nil
}

func NewRedisLimiterWithClient(client *redis.Client, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		prefix:      "login-failures:",
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

func (l *RedisLimiter) key(username string) string {
	return l.prefix + strings.ToLower(username)
}

// Blocked reports whether the username has used up its attempts. Redis
// failures let the attempt through.
func (l *RedisLimiter) Blocked(ctx context.Context, username string) bool {
	count, err := l.client.Get(ctx, l.key(username)).Int64()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Printf("login limiter: read %s: %v", username, err)
		return false
	}
	return count >= l.maxAttempts
}

// RecordFailure bumps the counter. The window starts at the first failure.
func (l *RedisLimiter) RecordFailure(ctx context.Context, username string) {
	key := l.key(username)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("login limiter: record %s: %v", username, err)
		return
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			log.Printf("login limiter: expire %s: %v", username, err)
		}
	}
}

func (l *RedisLimiter) Reset(ctx context.Context, username string) {
	if err := l.client.Del(ctx, l.key(username)).Err(); err != nil {
		log.Printf("login limiter: reset %s: %v", username, err)
	}
}

func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// Noop never blocks. It is used when no Redis is configured.
type Noop struct{}

func (Noop) Blocked(context.Context, string) bool  { return false }
func (Noop) RecordFailure(context.Context, string) {}
func (Noop) Reset(context.Context, string)         {}
