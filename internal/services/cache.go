package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache memoizes panel read responses.
// Every entry belongs to a scope (e.g. "servers/42") so a mutation can evict
// just the entries of the resource it touched.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key, scope string, value []byte, ttl time.Duration) error
	InvalidateScope(ctx context.Context, scope string) error
	Clear(ctx context.Context) error
}

// RedisCache is a ResponseCache shared by every process pointing at the same redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "ptero"
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

func (rc *RedisCache) entryKey(key string) string {
	return rc.prefix + ":cache:" + key
}

func (rc *RedisCache) scopeKey(scope string) string {
	return rc.prefix + ":scope:" + scope
}

func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := rc.client.Get(ctx, rc.entryKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get from cache: %w", err)
	}
	return data, true, nil
}

func (rc *RedisCache) Set(ctx context.Context, key, scope string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	pipe := rc.client.TxPipeline()
	pipe.Set(ctx, rc.entryKey(key), value, ttl)
	if scope != "" {
		pipe.SAdd(ctx, rc.scopeKey(scope), key)
		// scope index expires with its newest entry
		pipe.Expire(ctx, rc.scopeKey(scope), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (rc *RedisCache) InvalidateScope(ctx context.Context, scope string) error {
	members, err := rc.client.SMembers(ctx, rc.scopeKey(scope)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read cache scope: %w", err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, rc.entryKey(m))
	}
	keys = append(keys, rc.scopeKey(scope))

	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache scope: %w", err)
	}
	return nil
}

func (rc *RedisCache) Clear(ctx context.Context) error {
	iter := rc.client.Scan(ctx, 0, rc.prefix+":*", 0).Iterator()
	var batch []string
	for iter.Next(ctx) {
		key := iter.Val()
		if !strings.HasPrefix(key, rc.prefix+":cache:") && !strings.HasPrefix(key, rc.prefix+":scope:") {
			continue
		}
		batch = append(batch, key)
		if len(batch) >= 100 {
			if err := rc.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return rc.client.Del(ctx, batch...).Err()
	}
	return nil
}
