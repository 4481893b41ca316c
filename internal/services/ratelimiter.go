package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts inbound API requests per caller in fixed one-minute windows kept in Redis.
type RateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// ConnectRedis opens a client and makes sure the server answers.
func ConnectRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

func (rl *RateLimiter) Close() error {
	return rl.client.Close()
}

// Ping is used by the health endpoint
func (rl *RateLimiter) Ping(ctx context.Context) error {
	return rl.client.Ping(ctx).Err()
}

// AllowRequest increments the caller's counter for the current minute.
// It returns whether the request fits the limit, how many requests remain and
// when the window resets.
func (rl *RateLimiter) AllowRequest(ctx context.Context, caller string, limitPerMinute int) (bool, int, time.Time, error) {
	now := rl.now()
	window := now.Unix() / 60
	resetAt := time.Unix((window+1)*60, 0)

	key := fmt.Sprintf("rate_limit:%s:minute:%d", caller, window)
	count, err := rl.incrementAndGet(ctx, key, time.Minute)
	if err != nil {
		return false, 0, resetAt, fmt.Errorf("failed to check minute rate limit: %w", err)
	}

	remaining := limitPerMinute - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= limitPerMinute, remaining, resetAt, nil
}

// incrementAndGet bumps a counter and sets its TTL in one round trip
func (rl *RateLimiter) incrementAndGet(ctx context.Context, key string, ttl time.Duration) (int, error) {
	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}
