package service

import (
	"context"
	"errors"
	"time"

	"github.com/priyankaksolves/student-exam-app/internal/config"
	"github.com/redis/go-redis/v9"
)

// StateCache is the hot-path store for live attempts: start timestamps
// and autosaved answers. Redis backs it in production; tests swap in a
// map.
type StateCache interface {
	SetStartTime(ctx context.Context, attemptID int64, startedAt time.Time, ttl time.Duration) error
	StartTime(ctx context.Context, attemptID int64) (time.Time, bool, error)
	SaveAnswer(ctx context.Context, attemptID int64, questionID string, payload string) error
	Answers(ctx context.Context, attemptID int64) (map[string]string, error)
	Clear(ctx context.Context, attemptID int64) error
}

// RedisStateCache implements StateCache on Redis.
type RedisStateCache struct {
	rdb *redis.Client
}

// NewRedisStateCache creates a Redis-backed state cache.
func NewRedisStateCache(rdb *redis.Client) *RedisStateCache {
	return &RedisStateCache{rdb: rdb}
}

func (c *RedisStateCache) SetStartTime(ctx context.Context, attemptID int64, startedAt time.Time, ttl time.Duration) error {
	return c.rdb.Set(ctx, config.CacheKey.AttemptStartKey(attemptID), startedAt.UTC().Format(time.RFC3339Nano), ttl).Err()
}

func (c *RedisStateCache) StartTime(ctx context.Context, attemptID int64) (time.Time, bool, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.AttemptStartKey(attemptID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		// Corrupt entry: treat as a miss, the database copy is authoritative.
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func (c *RedisStateCache) SaveAnswer(ctx context.Context, attemptID int64, questionID string, payload string) error {
	return c.rdb.HSet(ctx, config.CacheKey.AttemptAnswersKey(attemptID), questionID, payload).Err()
}

func (c *RedisStateCache) Answers(ctx context.Context, attemptID int64) (map[string]string, error) {
	m, err := c.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(attemptID)).Result()
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (c *RedisStateCache) Clear(ctx context.Context, attemptID int64) error {
	return c.rdb.Del(ctx,
		config.CacheKey.AttemptStartKey(attemptID),
		config.CacheKey.AttemptAnswersKey(attemptID),
	).Err()
}
